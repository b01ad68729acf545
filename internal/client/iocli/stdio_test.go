package iocli

import (
	"bytes"
	"context"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Проверяем что NewStdio возвращает валидный объект
func TestNewStdio(t *testing.T) {
	stdio := NewStdio()
	assert.NotNil(t, stdio)
}

func TestStream_Output(t *testing.T) {
	var out bytes.Buffer
	stream := NewStream(strings.NewReader(""), &out)

	stream.Println("hello", "world")
	stream.Printf("test %d %s\n", 1, "abc")
	_, err := stream.Write([]byte("raw"))
	require.NoError(t, err)

	assert.Equal(t, "hello world\ntest 1 abc\nraw", out.String())
}

func TestStream_ReadInput(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "line", input: "user input\n", want: "user input"},
		{name: "trimmed", input: "  padded  \r\n", want: "padded"},
		{name: "no trailing newline", input: "last", want: "last"},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			stream := NewStream(strings.NewReader(tt.input), &out)

			got, err := stream.ReadInput("Prompt: ")
			if tt.wantErr {
				assert.ErrorIs(t, err, io.EOF)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, "Prompt: ", out.String())
		})
	}
}

// Тест ReadPassword из pipe: без терминала пароль читается как строка
func TestStdio_ReadPasswordFromPipe(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer func() { _ = r.Close() }()

	go func() {
		_, _ = w.Write([]byte("eyJ.token.sig\n"))
		_ = w.Close()
	}()

	var out bytes.Buffer
	stream := NewStream(r, &out)
	token, err := stream.ReadPassword("Token: ")
	require.NoError(t, err)
	assert.Equal(t, "eyJ.token.sig", token)
}

func TestSignInPrompt(t *testing.T) {
	var out bytes.Buffer
	p := NewSignInPrompt(NewStream(strings.NewReader(""), &out), "forkful")

	p.PromptSignIn(context.Background(), "like")

	assert.Equal(t, "Sign in to like: run 'forkful login'\n", out.String())
}
