package port

import (
	"context"
	"io"
)

// EmailSender delivers outbound email. Delivery is best-effort from the
// caller's point of view; implementations decide about retries.
type EmailSender interface {
	Send(ctx context.Context, recipient, subject, htmlBody string) error
}

// MediaStorage stores uploaded audio and image files in an object store.
// Media handling lives outside the auth core; the interface exists so the
// post handlers can be wired against it.
type MediaStorage interface {
	Put(ctx context.Context, key string, contentType string, body io.Reader) (string, error)
	Delete(ctx context.Context, key string) error
}
