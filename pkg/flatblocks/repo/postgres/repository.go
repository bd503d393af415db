package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/simple-flatblocks/pkg/flatblocks"
)

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Repository implements flatblocks.Repository using PostgreSQL
type Repository struct {
	db DBTX
}

// New creates a new PostgreSQL repository
func New(db DBTX) flatblocks.Repository {
	return &Repository{db: db}
}

// NewWithPool creates a new PostgreSQL repository with connection pool
func NewWithPool(pool *pgxpool.Pool) flatblocks.Repository {
	return &Repository{db: pool}
}

const selectColumns = `id, slug, header, content, created_at, updated_at`

// Error handling helper
func (r *Repository) handlePostgresError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return flatblocks.ErrFlatBlockExists
		case "23502": // not_null_violation
			return fmt.Errorf("required field %s is missing", pgErr.ColumnName)
		case "22001": // string_data_right_truncation
			return fmt.Errorf("value too long for column %s", pgErr.ColumnName)
		case "42P01": // undefined_table
			return fmt.Errorf("table does not exist - database migration required")
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return flatblocks.ErrFlatBlockNotFound
	}

	return fmt.Errorf("database error in %s: %w", operation, err)
}

func scanFlatBlock(row pgx.Row) (*flatblocks.FlatBlock, error) {
	var block flatblocks.FlatBlock
	err := row.Scan(&block.ID, &block.Slug, &block.Header, &block.Content, &block.CreatedAt, &block.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &block, nil
}

func (r *Repository) GetFlatBlockBySlug(ctx context.Context, slug string) (*flatblocks.FlatBlock, error) {
	query := `SELECT ` + selectColumns + ` FROM flatblocks WHERE slug = $1`

	block, err := scanFlatBlock(r.db.QueryRow(ctx, query, slug))
	if err != nil {
		return nil, r.handlePostgresError("get flatblock", err)
	}
	return block, nil
}

func (r *Repository) CreateFlatBlock(ctx context.Context, block *flatblocks.FlatBlock) error {
	query := `
		INSERT INTO flatblocks (id, slug, header, content, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.Exec(ctx, query,
		block.ID, block.Slug, block.Header, block.Content, block.CreatedAt, block.UpdatedAt)
	if err != nil {
		return r.handlePostgresError("create flatblock", err)
	}
	return nil
}

func (r *Repository) UpdateFlatBlock(ctx context.Context, block *flatblocks.FlatBlock) error {
	query := `
		UPDATE flatblocks SET header = $2, content = $3, updated_at = $4
		WHERE slug = $1`

	tag, err := r.db.Exec(ctx, query, block.Slug, block.Header, block.Content, block.UpdatedAt)
	if err != nil {
		return r.handlePostgresError("update flatblock", err)
	}
	if tag.RowsAffected() == 0 {
		return flatblocks.ErrFlatBlockNotFound
	}
	return nil
}

func (r *Repository) DeleteFlatBlock(ctx context.Context, slug string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM flatblocks WHERE slug = $1`, slug)
	if err != nil {
		return r.handlePostgresError("delete flatblock", err)
	}
	if tag.RowsAffected() == 0 {
		return flatblocks.ErrFlatBlockNotFound
	}
	return nil
}

func (r *Repository) ListFlatBlocks(ctx context.Context, params flatblocks.ListParams) ([]*flatblocks.FlatBlock, error) {
	where, args := buildSearchClause(params.Search)
	query := `SELECT ` + selectColumns + ` FROM flatblocks` + where + ` ORDER BY slug`

	if params.Limit > 0 {
		args = append(args, params.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if params.Offset > 0 {
		args = append(args, params.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, r.handlePostgresError("list flatblocks", err)
	}
	defer rows.Close()

	result := []*flatblocks.FlatBlock{}
	for rows.Next() {
		block, err := scanFlatBlock(rows)
		if err != nil {
			return nil, r.handlePostgresError("scan flatblock", err)
		}
		result = append(result, block)
	}
	if err := rows.Err(); err != nil {
		return nil, r.handlePostgresError("list flatblocks", err)
	}
	return result, nil
}

func (r *Repository) CountFlatBlocks(ctx context.Context, params flatblocks.ListParams) (int64, error) {
	where, args := buildSearchClause(params.Search)

	var count int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM flatblocks`+where, args...).Scan(&count); err != nil {
		return 0, r.handlePostgresError("count flatblocks", err)
	}
	return count, nil
}

// buildSearchClause requires every search term to appear in slug, header or
// content, ignoring case.
func buildSearchClause(search string) (string, []interface{}) {
	terms := flatblocks.SearchTerms(search)
	if len(terms) == 0 {
		return "", nil
	}

	conditions := make([]string, 0, len(terms))
	args := make([]interface{}, 0, len(terms))
	for _, term := range terms {
		args = append(args, "%"+escapeLike(term)+"%")
		n := len(args)
		conditions = append(conditions, fmt.Sprintf("(slug ILIKE $%d OR header ILIKE $%d OR content ILIKE $%d)", n, n, n))
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
