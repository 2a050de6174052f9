package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"

	"github.com/nmoralez/batuchat/internal/parser"
	"github.com/nmoralez/batuchat/internal/search"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// MessageFilter narrows a message listing. Zero values mean "no filter".
type MessageFilter struct {
	Sender    string
	Type      string
	Tag       string
	Search    string
	From      *time.Time
	To        *time.Time
	Important bool
	Page      int
	Limit     int
}

// Store defines the interface for database operations.
// Methods should accept context.Context for cancellation and timeouts.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// CreateExport persists an export and its full message batch in a
	// single all-or-nothing transaction.
	CreateExport(ctx context.Context, export *Export, messages []parser.Message) error

	// ListExports returns all exports, most recently uploaded first.
	ListExports(ctx context.Context) ([]Export, error)

	// DeleteExport removes an export; its messages go with it.
	DeleteExport(ctx context.Context, id string) error

	// QueryMessages returns a filtered, paginated message listing plus
	// the total count matching the filter.
	QueryMessages(ctx context.Context, filter MessageFilter) ([]Message, int, error)

	// SenderSummaries returns per-sender counts, system sender excluded.
	SenderSummaries(ctx context.Context) ([]SenderSummary, error)

	// DashboardStats computes the dashboard aggregate views.
	DashboardStats(ctx context.Context) (*DashboardStats, error)

	// FunStats computes the social statistics views.
	FunStats(ctx context.Context) (*FunStats, error)

	// SearchMessages runs relevance-ranked full-text search over message
	// content, ties broken by most-recent timestamp.
	SearchMessages(ctx context.Context, query string, page, limit int) ([]SearchResult, int, error)

	// RunMaintenance performs database maintenance (VACUUM, ANALYZE,
	// full-text index optimization).
	RunMaintenance(ctx context.Context) error
}

// sqlxStore provides an implementation of the Store interface using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a new Store implementation backed by sqlx.
// It requires a connected sqlx.DB instance and a logger.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

// Ping checks the database connection.
func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

const insertMessageQuery = `
    INSERT INTO messages (id, export_id, sender, content, content_stems, timestamp, message_type,
                          has_media, media_filename, media_type, is_important, has_emoji, tags)
    VALUES (:id, :export_id, :sender, :content, :content_stems, :timestamp, :message_type,
            :has_media, :media_filename, :media_type, :is_important, :has_emoji, :tags);
`

// CreateExport persists one export and all its messages transactionally.
// Either the whole batch becomes visible or none of it does.
func (s *sqlxStore) CreateExport(ctx context.Context, export *Export, messages []parser.Message) error {
	if export == nil {
		return fmt.Errorf("cannot save nil export")
	}
	if export.ID == "" || export.Filename == "" {
		return fmt.Errorf("export must have an id and a filename")
	}
	if len(messages) == 0 {
		return fmt.Errorf("cannot save export %q with zero messages", export.ID)
	}

	if export.UploadedAt.IsZero() {
		export.UploadedAt = time.Now().UTC()
	}
	export.MessageCount = len(messages)

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to begin transaction for export", "export_id", export.ID, "error", err)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if tx != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				if !errors.Is(rollbackErr, sql.ErrTxDone) {
					s.logger.WarnContext(ctx, "Error rolling back transaction", "error", rollbackErr)
				}
			}
		}
	}()

	exportQuery := `
        INSERT INTO exports (id, filename, uploaded_at, message_count, date_range_start, date_range_end)
        VALUES (:id, :filename, :uploaded_at, :message_count, :date_range_start, :date_range_end);
    `
	if _, err := tx.NamedExecContext(ctx, exportQuery, export); err != nil {
		s.logger.ErrorContext(ctx, "Error saving export", "export_id", export.ID, "error", err)
		return fmt.Errorf("failed to save export %q: %w", export.ID, err)
	}

	stmt, err := tx.PrepareNamedContext(ctx, insertMessageQuery)
	if err != nil {
		return fmt.Errorf("failed to prepare message insert: %w", err)
	}
	defer stmt.Close()

	for i := range messages {
		row := newMessageRow(export.ID, &messages[i])
		if _, err := stmt.ExecContext(ctx, row); err != nil {
			s.logger.ErrorContext(ctx, "Error saving message, aborting export",
				"export_id", export.ID, "message_id", row.ID, "error", err)
			return fmt.Errorf("failed to save message %q for export %q: %w", row.ID, export.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		s.logger.ErrorContext(ctx, "Failed to commit export transaction", "export_id", export.ID, "error", err)
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	tx = nil

	s.logger.InfoContext(ctx, "Export saved successfully",
		"export_id", export.ID, "filename", export.Filename, "message_count", export.MessageCount)
	return nil
}

// newMessageRow converts a parsed message into its persisted form,
// including the stemmed full-text shadow.
func newMessageRow(exportID string, m *parser.Message) *Message {
	return &Message{
		ID:            m.ID,
		ExportID:      exportID,
		Sender:        m.Sender,
		Content:       m.Content,
		ContentStems:  search.StemText(m.Content),
		Timestamp:     m.Timestamp,
		Type:          m.Type,
		HasMedia:      m.HasMedia,
		MediaFilename: m.MediaFilename,
		MediaType:     m.MediaType,
		IsImportant:   m.IsImportant,
		HasEmoji:      m.HasEmoji,
		Tags:          TagList(m.Tags),
	}
}

// ListExports returns all exports, most recently uploaded first.
func (s *sqlxStore) ListExports(ctx context.Context) ([]Export, error) {
	var exports []Export
	query := `
        SELECT id, filename, uploaded_at, message_count, date_range_start, date_range_end
        FROM exports
        ORDER BY uploaded_at DESC;
    `
	if err := s.db.SelectContext(ctx, &exports, query); err != nil {
		s.logger.ErrorContext(ctx, "Error listing exports", "error", err)
		return nil, fmt.Errorf("failed to list exports: %w", err)
	}
	return exports, nil
}

// DeleteExport removes an export; foreign keys cascade the delete to its
// messages and the delete triggers keep the full-text index in sync.
func (s *sqlxStore) DeleteExport(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("export id cannot be empty")
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM exports WHERE id = ?;`, id)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error deleting export", "export_id", id, "error", err)
		return fmt.Errorf("failed to delete export %q: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		return fmt.Errorf("export %q: %w", id, ErrNotFound)
	}

	s.logger.InfoContext(ctx, "Export deleted", "export_id", id)
	return nil
}

const messageColumns = `id, export_id, sender, content, timestamp, message_type,
       has_media, media_filename, media_type, is_important, has_emoji, tags`

// QueryMessages returns a filtered, paginated listing ordered newest
// first, plus the total number of rows matching the filter.
func (s *sqlxStore) QueryMessages(ctx context.Context, filter MessageFilter) ([]Message, int, error) {
	var conditions []string
	var args []any

	if filter.Sender != "" {
		conditions = append(conditions, "sender = ?")
		args = append(args, filter.Sender)
	}
	if filter.Type != "" {
		conditions = append(conditions, "message_type = ?")
		args = append(args, filter.Type)
	}
	if filter.Tag != "" {
		conditions = append(conditions, "EXISTS (SELECT 1 FROM json_each(messages.tags) WHERE json_each.value = ?)")
		args = append(args, filter.Tag)
	}
	if filter.Search != "" {
		match := search.MatchQuery(filter.Search)
		if match == "" {
			return []Message{}, 0, nil
		}
		conditions = append(conditions, "rowid IN (SELECT rowid FROM messages_fts WHERE messages_fts MATCH ?)")
		args = append(args, match)
	}
	if filter.From != nil {
		conditions = append(conditions, "timestamp >= ?")
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		conditions = append(conditions, "timestamp <= ?")
		args = append(args, *filter.To)
	}
	if filter.Important {
		conditions = append(conditions, "is_important = 1")
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + joinConditions(conditions)
	}

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM messages %s;`, where)
	if err := s.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		s.logger.ErrorContext(ctx, "Error counting messages", "error", err)
		return nil, 0, fmt.Errorf("failed to count messages: %w", err)
	}

	limit, offset := pagination(filter.Page, filter.Limit, 50)
	listQuery := fmt.Sprintf(`
        SELECT %s FROM messages %s
        ORDER BY timestamp DESC
        LIMIT ? OFFSET ?;
    `, messageColumns, where)

	var messages []Message
	listArgs := append(args, limit, offset)
	if err := s.db.SelectContext(ctx, &messages, listQuery, listArgs...); err != nil {
		s.logger.ErrorContext(ctx, "Error querying messages", "error", err)
		return nil, 0, fmt.Errorf("failed to query messages: %w", err)
	}

	s.logger.DebugContext(ctx, "Queried messages", "count", len(messages), "total", total)
	return messages, total, nil
}

// SenderSummaries returns per-sender message and media counts with
// first/last activity, system messages excluded.
//
// MIN/MAX over a timestamp column loses the declared column type, so
// the driver hands the aggregates back as text and they are parsed here.
func (s *sqlxStore) SenderSummaries(ctx context.Context) ([]SenderSummary, error) {
	type summaryRow struct {
		Sender       string `db:"sender"`
		MessageCount int    `db:"message_count"`
		MediaCount   int    `db:"media_count"`
		FirstMessage string `db:"first_message"`
		LastMessage  string `db:"last_message"`
	}

	var rows []summaryRow
	query := `
        SELECT sender,
               COUNT(*) AS message_count,
               SUM(CASE WHEN has_media THEN 1 ELSE 0 END) AS media_count,
               MIN(timestamp) AS first_message,
               MAX(timestamp) AS last_message
        FROM messages
        WHERE message_type != 'system'
        GROUP BY sender
        ORDER BY message_count DESC;
    `
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		s.logger.ErrorContext(ctx, "Error querying sender summaries", "error", err)
		return nil, fmt.Errorf("failed to query sender summaries: %w", err)
	}

	summaries := make([]SenderSummary, 0, len(rows))
	for _, r := range rows {
		summaries = append(summaries, SenderSummary{
			Sender:       r.Sender,
			MessageCount: r.MessageCount,
			MediaCount:   r.MediaCount,
			FirstMessage: parseStoredTime(r.FirstMessage),
			LastMessage:  parseStoredTime(r.LastMessage),
		})
	}
	return summaries, nil
}

// SearchMessages ranks full-text hits by exact-phrase presence first,
// then bm25 relevance, then most-recent timestamp.
func (s *sqlxStore) SearchMessages(ctx context.Context, query string, page, limit int) ([]SearchResult, int, error) {
	match := search.MatchQuery(query)
	if match == "" {
		return []SearchResult{}, 0, nil
	}

	var total int
	countQuery := `
        SELECT COUNT(*)
        FROM messages_fts
        WHERE messages_fts MATCH ?;
    `
	if err := s.db.GetContext(ctx, &total, countQuery, match); err != nil {
		s.logger.ErrorContext(ctx, "Error counting search results", "query", query, "error", err)
		return nil, 0, fmt.Errorf("failed to count search results: %w", err)
	}

	pageLimit, offset := pagination(page, limit, 20)
	searchQuery := `
        SELECT m.id, m.export_id, m.sender, m.content, m.timestamp, m.message_type,
               m.has_media, m.media_filename, m.media_type, m.is_important, m.has_emoji, m.tags,
               bm25(messages_fts) AS rank
        FROM messages_fts
        JOIN messages m ON m.rowid = messages_fts.rowid
        WHERE messages_fts MATCH ?
        ORDER BY (instr(lower(m.content), lower(?)) > 0) DESC, rank, m.timestamp DESC
        LIMIT ? OFFSET ?;
    `

	var results []SearchResult
	if err := s.db.SelectContext(ctx, &results, searchQuery, match, query, pageLimit, offset); err != nil {
		s.logger.ErrorContext(ctx, "Error searching messages", "query", query, "error", err)
		return nil, 0, fmt.Errorf("failed to search messages: %w", err)
	}

	s.logger.DebugContext(ctx, "Search completed", "query", query, "hits", len(results), "total", total)
	return results, total, nil
}

// RunMaintenance executes VACUUM, ANALYZE, and a full-text index
// optimization pass. VACUUM must run outside a transaction in SQLite.
func (s *sqlxStore) RunMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		s.logger.WarnContext(ctx, "Context cancelled before starting maintenance", "error", ctx.Err())
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance...")

	steps := []struct {
		name  string
		query string
	}{
		{"vacuum", "VACUUM;"},
		{"analyze", "ANALYZE;"},
		{"fts_optimize", "INSERT INTO messages_fts(messages_fts) VALUES('optimize');"},
	}

	for _, step := range steps {
		if _, err := s.db.ExecContext(ctx, step.query); err != nil {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				s.logger.WarnContext(ctx, "Maintenance step timed out or was cancelled", "step", step.name, "error", err)
				return fmt.Errorf("database maintenance (%s) timed out: %w", step.name, err)
			}
			s.logger.ErrorContext(ctx, "Maintenance step failed", "step", step.name, "error", err)
			return fmt.Errorf("failed to execute %s: %w", step.name, err)
		}
	}

	s.logger.InfoContext(ctx, "Database maintenance completed successfully")
	return nil
}

// DashboardStats fans the dashboard queries out through an errgroup;
// the single-connection pool serializes them, the group collects the
// first error.
func (s *sqlxStore) DashboardStats(ctx context.Context) (*DashboardStats, error) {
	stats := &DashboardStats{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		type totalsRow struct {
			TotalMessages  int            `db:"total_messages"`
			TotalMedia     int            `db:"total_media"`
			TotalImportant int            `db:"total_important"`
			TotalSenders   int            `db:"total_senders"`
			Earliest       sql.NullString `db:"earliest"`
			Latest         sql.NullString `db:"latest"`
		}
		query := `
            SELECT COUNT(*) AS total_messages,
                   COALESCE(SUM(CASE WHEN has_media THEN 1 ELSE 0 END), 0) AS total_media,
                   COALESCE(SUM(CASE WHEN is_important THEN 1 ELSE 0 END), 0) AS total_important,
                   COUNT(DISTINCT sender) AS total_senders,
                   MIN(timestamp) AS earliest,
                   MAX(timestamp) AS latest
            FROM messages
            WHERE message_type != 'system';
        `
		var row totalsRow
		if err := s.db.GetContext(gctx, &row, query); err != nil {
			return err
		}
		stats.Totals = Totals{
			TotalMessages:  row.TotalMessages,
			TotalMedia:     row.TotalMedia,
			TotalImportant: row.TotalImportant,
			TotalSenders:   row.TotalSenders,
		}
		if row.Earliest.Valid {
			t := parseStoredTime(row.Earliest.String)
			stats.Totals.Earliest = &t
		}
		if row.Latest.Valid {
			t := parseStoredTime(row.Latest.String)
			stats.Totals.Latest = &t
		}
		return nil
	})

	g.Go(func() error {
		query := `
            SELECT sender, COUNT(*) AS count
            FROM messages
            WHERE message_type != 'system'
            GROUP BY sender ORDER BY count DESC LIMIT 15;
        `
		return s.db.SelectContext(gctx, &stats.BySender, query)
	})

	g.Go(func() error {
		query := `
            SELECT message_type, COUNT(*) AS count
            FROM messages
            GROUP BY message_type ORDER BY count DESC;
        `
		return s.db.SelectContext(gctx, &stats.ByType, query)
	})

	g.Go(func() error {
		query := `
            SELECT json_each.value AS tag, COUNT(*) AS count
            FROM messages, json_each(messages.tags)
            GROUP BY tag ORDER BY count DESC;
        `
		return s.db.SelectContext(gctx, &stats.ByTag, query)
	})

	g.Go(func() error {
		query := `
            SELECT DATE(timestamp) AS date, COUNT(*) AS count
            FROM messages
            GROUP BY DATE(timestamp) ORDER BY date DESC LIMIT 30;
        `
		return s.db.SelectContext(gctx, &stats.ByDate, query)
	})

	g.Go(func() error {
		query := fmt.Sprintf(`
            SELECT %s FROM messages
            WHERE is_important = 1
            ORDER BY timestamp DESC LIMIT 10;
        `, messageColumns)
		return s.db.SelectContext(gctx, &stats.RecentImportant, query)
	})

	if err := g.Wait(); err != nil {
		s.logger.ErrorContext(ctx, "Error computing dashboard stats", "error", err)
		return nil, fmt.Errorf("failed to compute dashboard stats: %w", err)
	}
	return stats, nil
}

// FunStats computes the social statistics views.
func (s *sqlxStore) FunStats(ctx context.Context) (*FunStats, error) {
	stats := &FunStats{}
	g, gctx := errgroup.WithContext(ctx)

	senderCount := func(dest *[]SenderCount, query string) func() error {
		return func() error {
			return s.db.SelectContext(gctx, dest, query)
		}
	}

	g.Go(senderCount(&stats.Chattiest, `
        SELECT sender, COUNT(*) AS count
        FROM messages WHERE message_type != 'system'
        GROUP BY sender ORDER BY count DESC LIMIT 10;
    `))

	g.Go(senderCount(&stats.Quietest, `
        SELECT sender, COUNT(*) AS count
        FROM messages WHERE message_type != 'system'
        GROUP BY sender ORDER BY count ASC LIMIT 5;
    `))

	g.Go(senderCount(&stats.NightOwls, `
        SELECT sender, COUNT(*) AS count
        FROM messages
        WHERE CAST(strftime('%H', timestamp) AS INTEGER) BETWEEN 0 AND 4
          AND message_type != 'system'
        GROUP BY sender ORDER BY count DESC LIMIT 5;
    `))

	g.Go(senderCount(&stats.EarlyBirds, `
        SELECT sender, COUNT(*) AS count
        FROM messages
        WHERE CAST(strftime('%H', timestamp) AS INTEGER) BETWEEN 6 AND 8
          AND message_type != 'system'
        GROUP BY sender ORDER BY count DESC LIMIT 5;
    `))

	g.Go(senderCount(&stats.MediaKings, `
        SELECT sender, COUNT(*) AS count
        FROM messages WHERE has_media = 1
        GROUP BY sender ORDER BY count DESC LIMIT 5;
    `))

	g.Go(func() error {
		query := `
            SELECT sender, ROUND(AVG(LENGTH(content))) AS avg_length, COUNT(*) AS msg_count
            FROM messages
            WHERE message_type = 'text' AND LENGTH(content) > 0
            GROUP BY sender HAVING COUNT(*) > 5
            ORDER BY avg_length DESC LIMIT 5;
        `
		return s.db.SelectContext(gctx, &stats.LongestMessages, query)
	})

	g.Go(senderCount(&stats.EmojiLovers, `
        SELECT sender, COUNT(*) AS count
        FROM messages
        WHERE has_emoji = 1 AND message_type != 'system'
        GROUP BY sender ORDER BY count DESC LIMIT 5;
    `))

	g.Go(senderCount(&stats.MostImportant, `
        SELECT sender, COUNT(*) AS count
        FROM messages WHERE is_important = 1
        GROUP BY sender ORDER BY count DESC LIMIT 5;
    `))

	g.Go(func() error {
		query := `
            SELECT CAST(strftime('%w', timestamp) AS INTEGER) AS dow, COUNT(*) AS count
            FROM messages WHERE message_type != 'system'
            GROUP BY dow ORDER BY count DESC;
        `
		return s.db.SelectContext(gctx, &stats.DayBreakdown, query)
	})

	g.Go(func() error {
		query := `
            SELECT CAST(strftime('%H', timestamp) AS INTEGER) AS hour, COUNT(*) AS count
            FROM messages WHERE message_type != 'system'
            GROUP BY hour ORDER BY hour ASC;
        `
		return s.db.SelectContext(gctx, &stats.HourBreakdown, query)
	})

	g.Go(func() error {
		query := `
            SELECT COALESCE(ROUND(CAST(COUNT(*) AS REAL) /
                   MAX(1, julianday(MAX(timestamp)) - julianday(MIN(timestamp))), 1), 0)
            FROM messages WHERE message_type != 'system';
        `
		return s.db.GetContext(gctx, &stats.AvgPerDay, query)
	})

	g.Go(func() error {
		// Consecutive calendar days collapse into one run when the day
		// minus its per-sender row number is constant; each sender
		// reports only their longest run.
		query := `
            WITH daily AS (
                SELECT sender, DATE(timestamp) AS day
                FROM messages WHERE message_type != 'system'
                GROUP BY sender, DATE(timestamp)
            ), numbered AS (
                SELECT sender, day,
                       ROW_NUMBER() OVER (PARTITION BY sender ORDER BY day) AS rn
                FROM daily
            ), runs AS (
                SELECT sender, COUNT(*) AS streak_days
                FROM numbered
                GROUP BY sender, julianday(day) - rn
            )
            SELECT sender, MAX(streak_days) AS streak_days
            FROM runs
            GROUP BY sender
            ORDER BY streak_days DESC
            LIMIT 5;
        `
		return s.db.SelectContext(gctx, &stats.Streaks, query)
	})

	if err := g.Wait(); err != nil {
		s.logger.ErrorContext(ctx, "Error computing fun stats", "error", err)
		return nil, fmt.Errorf("failed to compute fun stats: %w", err)
	}
	return stats, nil
}

// sqliteTimeLayout is the text form the driver writes timestamps in
// when _time_format=sqlite is set on the DSN.
const sqliteTimeLayout = "2006-01-02 15:04:05.999999999-07:00"

// parseStoredTime parses a timestamp that came back from an aggregate
// expression as text. Unparseable input degrades to the zero time.
func parseStoredTime(s string) time.Time {
	if t, err := time.Parse(sqliteTimeLayout, s); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t
	}
	return time.Time{}
}

func pagination(page, limit, defaultLimit int) (int, int) {
	if limit <= 0 {
		limit = defaultLimit
	}
	if page <= 0 {
		page = 1
	}
	return limit, (page - 1) * limit
}

func joinConditions(conditions []string) string {
	out := conditions[0]
	for _, c := range conditions[1:] {
		out += " AND " + c
	}
	return out
}
