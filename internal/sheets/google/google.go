// Package google mirrors statements into a Google spreadsheet, one tab per
// user, through the Sheets v4 API.
package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"google.golang.org/api/googleapi"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"bilancio/internal/log"
	"bilancio/internal/report"
	"bilancio/internal/sheets"
)

var _ sheets.StatementWriter = (*Client)(nil)

const maxAttempts = 3

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	logger        *log.Logger

	// tabs already known to exist, so WriteStatement skips the lookup
	mu    sync.Mutex
	known map[string]bool

	backoff func(attempt int) time.Duration
}

// New authenticates with a service account key.
func New(ctx context.Context, spreadsheetID string, credentialsJSON []byte, logger *log.Logger) (*Client, error) {
	if len(credentialsJSON) == 0 {
		return nil, errors.New("missing service account credentials")
	}
	return NewWithOptions(ctx, spreadsheetID, logger,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
}

// NewWithOptions builds a client from raw API options, e.g. a custom endpoint.
func NewWithOptions(ctx context.Context, spreadsheetID string, logger *log.Logger, opts ...goption.ClientOption) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if logger == nil {
		logger = log.Discard()
	}
	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		logger:        logger.WithComponent(log.ComponentSheets),
		known:         make(map[string]bool),
		backoff:       func(attempt int) time.Duration { return time.Duration(attempt) * time.Second },
	}, nil
}

// WriteStatement creates the tab when missing, clears it and writes st.
func (c *Client) WriteStatement(ctx context.Context, tab string, st report.Statement) error {
	if err := c.ensureTab(ctx, tab); err != nil {
		return err
	}

	rng := quote(tab) + "!A:Z"
	err := c.retry(ctx, func() error {
		_, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).Context(ctx).Do()
		return err
	})
	if err != nil {
		return fmt.Errorf("clear %s: %w", rng, err)
	}

	rows := sheets.Rows(st)
	values := make([][]interface{}, len(rows))
	for i, r := range rows {
		values[i] = make([]interface{}, len(r))
		for j, v := range r {
			values[i][j] = v
		}
	}
	target := quote(tab) + "!A1"
	err = c.retry(ctx, func() error {
		_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, target, &gsheet.ValueRange{Values: values}).
			ValueInputOption("RAW").Context(ctx).Do()
		return err
	})
	if err != nil {
		return fmt.Errorf("update %s: %w", target, err)
	}

	c.logger.DebugContext(ctx, "Statement mirrored", "tab", tab, "rows", len(st.Rows))
	return nil
}

func (c *Client) ensureTab(ctx context.Context, tab string) error {
	c.mu.Lock()
	ok := c.known[tab]
	c.mu.Unlock()
	if ok {
		return nil
	}

	var doc *gsheet.Spreadsheet
	err := c.retry(ctx, func() error {
		var err error
		doc, err = c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
		return err
	})
	if err != nil {
		return fmt.Errorf("read spreadsheet: %w", err)
	}

	exists := false
	for _, s := range doc.Sheets {
		if s.Properties != nil && s.Properties.Title == tab {
			exists = true
			break
		}
	}
	if !exists {
		req := &gsheet.BatchUpdateSpreadsheetRequest{Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: tab}},
		}}}
		err := c.retry(ctx, func() error {
			_, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do()
			return err
		})
		if err != nil {
			return fmt.Errorf("add tab %s: %w", tab, err)
		}
		c.logger.InfoContext(ctx, "Created tab", "tab", tab)
	}

	c.mu.Lock()
	c.known[tab] = true
	c.mu.Unlock()
	return nil
}

// retry repeats fn on rate limiting and server errors.
func (c *Client) retry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = fn()
		if err == nil || attempt == maxAttempts {
			return err
		}
		if !retryable(err) {
			if rejected(err) {
				return fmt.Errorf("%w: %w", sheets.ErrRejected, err)
			}
			return err
		}
		c.logger.WarnContext(ctx, "Sheets call failed, retrying", log.FieldError, err, "attempt", attempt)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.backoff(attempt)):
		}
	}
	return err
}

func retryable(err error) bool {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == http.StatusTooManyRequests || gerr.Code >= 500
	}
	return false
}

// rejected reports client errors other than rate limiting.
func rejected(err error) bool {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code >= 400 && gerr.Code < 500 && gerr.Code != http.StatusTooManyRequests
	}
	return false
}

// quote wraps a tab title for A1 notation.
func quote(tab string) string {
	return "'" + strings.ReplaceAll(tab, "'", "''") + "'"
}
