package browser

import (
	"context"
	"errors"
)

// Run launches b, calls fn, and always closes the browser afterwards, even
// when fn fails or panics. Teardown errors are joined to fn's error.
func Run(ctx context.Context, b *Bot, fn func(context.Context, *Bot) error) (err error) {
	if err := b.Launch(ctx); err != nil {
		return err
	}
	defer func() {
		if cerr := b.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}()
	return fn(ctx, b)
}
