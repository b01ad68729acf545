package iocli

import "context"

//go:generate moq -out io_mock.go . IO

// IO терминальный ввод-вывод команд
type IO interface {
	Println(a ...any)
	Printf(format string, a ...any)
	ReadInput(prompt string) (string, error)
	ReadPassword(prompt string) (string, error)
	Write(p []byte) (n int, err error)
}

// SignInPrompt prints a sign-in hint when a mutation needs an actor.
type SignInPrompt struct {
	io      IO
	command string
}

// NewSignInPrompt создает подсказку входа; command имя бинарника для текста подсказки
func NewSignInPrompt(io IO, command string) *SignInPrompt {
	return &SignInPrompt{io: io, command: command}
}

// PromptSignIn печатает подсказку входа для action
func (p *SignInPrompt) PromptSignIn(ctx context.Context, action string) {
	p.io.Printf("Sign in to %s: run '%s login'\n", action, p.command)
}
