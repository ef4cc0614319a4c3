package mirror

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/moestate/newsdesk/internal/digest"
	"github.com/moestate/newsdesk/internal/errors"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var briefColumns = []string{
	"id", "title", "content", "property_type", "time_span",
	"custom_start", "custom_end", "created_at", "updated_at",
}

var articleColumns = []string{
	"brief_id", "display_order", "article_id", "title", "source",
	"url", "published_at", "excerpt", "type",
}

// Postgres mirrors digests into the briefs and articles tables.
// The parent row and its articles are always written in one transaction.
type Postgres struct {
	db DB
	tx *TxManager
}

// New creates a mirror over db, usually a *pgxpool.Pool.
func New(db DB) *Postgres {
	return &Postgres{db: db, tx: NewTxManager(db)}
}

func (p *Postgres) Enabled() bool { return true }

// Save inserts a new brief and its articles.
func (p *Postgres) Save(ctx context.Context, d *digest.Digest) error {
	err := p.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := p.insertBrief(ctx, d, false); err != nil {
			return err
		}
		return p.insertArticles(ctx, d)
	})
	return mapError("save", d.ID, err)
}

// Replace overwrites the brief and swaps its whole article set.
// A brief missing remotely is inserted.
func (p *Postgres) Replace(ctx context.Context, d *digest.Digest) error {
	err := p.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := p.insertBrief(ctx, d, true); err != nil {
			return err
		}
		if err := p.exec(ctx, psql.Delete("articles").Where(sq.Eq{"brief_id": d.ID})); err != nil {
			return err
		}
		return p.insertArticles(ctx, d)
	})
	return mapError("replace", d.ID, err)
}

// Delete removes the brief. Its articles go with it through ON DELETE CASCADE.
func (p *Postgres) Delete(ctx context.Context, id string) error {
	err := p.exec(ctx, psql.Delete("briefs").Where(sq.Eq{"id": id}))
	return mapError("delete", id, err)
}

// Fetch reads a brief back with its articles in display order.
// Returns (nil, nil) when the brief is not mirrored.
func (p *Postgres) Fetch(ctx context.Context, id string) (*digest.Digest, error) {
	query, args, err := psql.Select(briefColumns...).From("briefs").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, err
	}

	var (
		d                    digest.Digest
		propertyType, span   string
		start, end           *string
		createdAt, updatedAt time.Time
	)
	err = querierFromCtx(ctx, p.db).QueryRow(ctx, query, args...).Scan(
		&d.ID, &d.Title, &d.Content, &propertyType, &span,
		&start, &end, &createdAt, &updatedAt,
	)
	if stderrors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, mapError("fetch", id, err)
	}
	d.PropertyType = digest.PropertyType(propertyType)
	d.TimeSpan = digest.TimeSpan(span)
	if start != nil && end != nil {
		d.CustomDateRange = &digest.DateRange{Start: *start, End: *end}
	}
	d.CreatedAt = digest.Timestamp(createdAt)
	d.UpdatedAt = digest.Timestamp(updatedAt)

	query, args, err = psql.Select(articleColumns[2:]...).From("articles").
		Where(sq.Eq{"brief_id": id}).OrderBy("display_order").ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := querierFromCtx(ctx, p.db).Query(ctx, query, args...)
	if err != nil {
		return nil, mapError("fetch", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			a       digest.Article
			excerpt *string
			typ     *string
		)
		if err := rows.Scan(&a.ID, &a.Title, &a.Source, &a.URL, &a.PublishedAt, &excerpt, &typ); err != nil {
			return nil, mapError("fetch", id, err)
		}
		if excerpt != nil {
			a.Excerpt = *excerpt
		}
		if typ != nil {
			a.Type = digest.ArticleType(*typ)
		}
		d.Articles = append(d.Articles, a)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("fetch", id, err)
	}
	return &d, nil
}

func (p *Postgres) insertBrief(ctx context.Context, d *digest.Digest, upsert bool) error {
	var start, end *string
	if r := d.CustomDateRange; r != nil {
		start, end = &r.Start, &r.End
	}

	insert := psql.Insert("briefs").Columns(briefColumns...).Values(
		d.ID, d.Title, d.Content, string(d.PropertyType), string(d.TimeSpan),
		start, end, timestamp(d.CreatedAt), timestamp(d.UpdatedAt),
	)
	if upsert {
		insert = insert.Suffix(`ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			content = EXCLUDED.content,
			property_type = EXCLUDED.property_type,
			time_span = EXCLUDED.time_span,
			custom_start = EXCLUDED.custom_start,
			custom_end = EXCLUDED.custom_end,
			updated_at = EXCLUDED.updated_at`)
	}
	return p.exec(ctx, insert)
}

func (p *Postgres) insertArticles(ctx context.Context, d *digest.Digest) error {
	if len(d.Articles) == 0 {
		return nil
	}
	insert := psql.Insert("articles").Columns(articleColumns...)
	for i, a := range d.Articles {
		insert = insert.Values(d.ID, i, a.ID, a.Title, a.Source, a.URL, a.PublishedAt,
			nullable(a.Excerpt), nullable(string(a.Type)))
	}
	return p.exec(ctx, insert)
}

func (p *Postgres) exec(ctx context.Context, b sq.Sqlizer) error {
	query, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	_, err = querierFromCtx(ctx, p.db).Exec(ctx, query, args...)
	return err
}

// timestamp parses a stored timestamp; unparseable values fall back to the epoch.
func timestamp(s string) time.Time {
	t := digest.ParseTimestamp(s)
	if t.IsZero() {
		return time.Unix(0, 0).UTC()
	}
	return t.UTC()
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// mapError wraps a failure as MIRROR_FAILED with a readable cause.
// Context errors keep their identity inside the wrap.
func mapError(op, id string, err error) error {
	if err == nil {
		return nil
	}
	if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(err, context.Canceled) {
		return errors.NewMirrorFailed(op, fmt.Errorf("brief %s: %w", id, err))
	}

	var pgErr *pgconn.PgError
	if stderrors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return errors.NewMirrorFailed(op, fmt.Errorf("brief %s already mirrored: %w", id, err))
		case "23503": // foreign_key_violation
			return errors.NewMirrorFailed(op, fmt.Errorf("brief %s missing remotely: %w", id, err))
		}
	}
	return errors.NewMirrorFailed(op, fmt.Errorf("brief %s: %w", id, err))
}
