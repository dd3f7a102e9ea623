package venmo

import (
	"context"
	"net/url"
	"time"

	"github.com/tally-dev/tally/internal/model"
	"github.com/tally-dev/tally/internal/paging"
)

const dateLayout = "2006-01-02"

// TransactionFilter bounds a transaction history listing. Zero dates are
// not sent.
type TransactionFilter struct {
	Start  time.Time
	End    time.Time
	Limit  int
	Cursor *paging.Cursor
}

// Transactions lists the signed-in user's transaction history.
func (c *Client) Transactions(f TransactionFilter) *paging.Iterator[model.Transaction] {
	q := url.Values{}
	if !f.Start.IsZero() {
		q.Set("start_date", f.Start.Format(dateLayout))
	}
	if !f.End.IsZero() {
		q.Set("end_date", f.End.Format(dateLayout))
	}

	var fetch paging.FetchFunc[model.Transaction] = func(ctx context.Context, cursor paging.Cursor, limit int) (paging.Page[model.Transaction], error) {
		userID, err := c.store.UserID()
		if err != nil {
			return paging.Page[model.Transaction]{}, err
		}
		path := "/stories/target-or-actor/" + url.PathEscape(userID)
		return pageFetcher[model.Transaction](c, path, q)(ctx, cursor, limit)
	}

	var opts []paging.Option[model.Transaction]
	if f.Cursor != nil {
		opts = append(opts, paging.WithCursor[model.Transaction](*f.Cursor))
	}
	return paging.New(fetch, f.Limit, opts...)
}
