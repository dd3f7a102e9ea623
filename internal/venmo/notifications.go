package venmo

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/tally-dev/tally/internal/model"
	"github.com/tally-dev/tally/internal/paging"
)

// ErrNoSuchNotification is returned when a notification index is out of
// range of the actionable listing.
var ErrNoSuchNotification = errors.New("no such notification")

// Notifications lists actionable notifications, those linking a payment.
// Informational notifications are skipped and do not count toward limit.
func (c *Client) Notifications(limit int) *paging.Iterator[model.Notification] {
	return paging.New(
		pageFetcher[model.Notification](c, "/notifications", url.Values{}),
		limit,
		paging.WithFilter(model.Notification.Actionable),
	)
}

// SettleNotification settles the payment linked to the index-th actionable
// notification, counting from 1 in listing order.
func (c *Client) SettleNotification(ctx context.Context, index int, action SettleAction) (model.Payment, error) {
	if index < 1 {
		return model.Payment{}, fmt.Errorf("%w: index %d", ErrNoSuchNotification, index)
	}

	it := c.Notifications(index)
	var (
		n     model.Notification
		found int
	)
	for it.Next(ctx) {
		n = it.Value()
		found++
	}
	if err := it.Err(); err != nil {
		return model.Payment{}, fmt.Errorf("listing notifications: %w", err)
	}
	if found < index {
		return model.Payment{}, fmt.Errorf("%w: index %d, only %d actionable", ErrNoSuchNotification, index, found)
	}
	return c.SettlePayment(ctx, n.Payment.ID, action)
}
