// Package share builds post links and hands them to the platform share
// surfaces: the share sheet and the clipboard.
package share

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/atotto/clipboard"
)

// Platform values reported to share analytics
const (
	PlatformSheet     = "share_sheet"
	PlatformClipboard = "clipboard"
)

// ErrClipboardUnavailable возвращается, если в системе нет доступного буфера обмена
var ErrClipboardUnavailable = errors.New("clipboard unavailable")

// Links пара ссылок на пост: deep link приложения и web ссылка
type Links struct {
	DeepLink string // DeepLink ссылка вида forkful://post/<id>
	WebLink  string // WebLink ссылка вида https://forkful.app/post/<id>
}

// Content то, что передается в share sheet
type Content struct {
	Caption string
	Links   Links
}

// LinkBuilder строит ссылки на посты
type LinkBuilder struct {
	scheme  string
	webBase string
}

// NewLinkBuilder создает построитель ссылок. scheme без "://", webBase без завершающего "/".
func NewLinkBuilder(scheme, webBase string) LinkBuilder {
	return LinkBuilder{
		scheme:  strings.TrimSuffix(scheme, "://"),
		webBase: strings.TrimRight(webBase, "/"),
	}
}

// Post returns the deep link and web link of an item.
func (b LinkBuilder) Post(itemID string) Links {
	id := url.PathEscape(itemID)
	return Links{
		DeepLink: fmt.Sprintf("%s://post/%s", b.scheme, id),
		WebLink:  fmt.Sprintf("%s/post/%s", b.webBase, id),
	}
}

//go:generate moq -out share_mock.go . Sheet Clipboard

// Sheet показывает системный диалог «поделиться»
type Sheet interface {
	Present(ctx context.Context, content Content) error
}

// Clipboard записывает текст в буфер обмена
type Clipboard interface {
	WriteText(text string) error
}

// SystemClipboard uses the OS clipboard.
type SystemClipboard struct{}

// WriteText записывает text в системный буфер обмена
func (SystemClipboard) WriteText(text string) error {
	if clipboard.Unsupported {
		return ErrClipboardUnavailable
	}
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("failed to write clipboard: %w", err)
	}
	return nil
}

// ConsoleSheet is the terminal stand-in for a native share sheet: it prints
// the caption and both links.
type ConsoleSheet struct {
	w io.Writer
}

// NewConsoleSheet создает share sheet, печатающий в w
func NewConsoleSheet(w io.Writer) *ConsoleSheet {
	return &ConsoleSheet{w: w}
}

// Present печатает содержимое
func (s *ConsoleSheet) Present(ctx context.Context, content Content) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if content.Caption != "" {
		if _, err := fmt.Fprintln(s.w, content.Caption); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(s.w, "App: %s\nWeb: %s\n", content.Links.DeepLink, content.Links.WebLink)
	return err
}
