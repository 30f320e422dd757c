package scene

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/signalsfoundry/rf-heatmap/core"
	"github.com/signalsfoundry/rf-heatmap/model"

	_ "modernc.org/sqlite"
)

var (
	// ErrObjectExists is returned when a path is already occupied.
	ErrObjectExists = errors.New("scene object already exists")
	// ErrNotPointCloud is returned when a handle does not name a point cloud.
	ErrNotPointCloud = errors.New("not a point cloud")
)

const schema = `
CREATE TABLE IF NOT EXISTS scene_objects (
	path       TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	x          REAL NOT NULL,
	y          REAL NOT NULL,
	z          REAL NOT NULL,
	visibility TEXT NOT NULL,
	xformable  INTEGER NOT NULL,
	tags       TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS point_clouds (
	path       TEXT PRIMARY KEY,
	visibility TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS cloud_points (
	cloud TEXT NOT NULL,
	idx   INTEGER NOT NULL,
	x REAL NOT NULL, y REAL NOT NULL, z REAL NOT NULL,
	PRIMARY KEY (cloud, idx)
);
CREATE TABLE IF NOT EXISTS cloud_colors (
	cloud TEXT NOT NULL,
	idx   INTEGER NOT NULL,
	r REAL NOT NULL, g REAL NOT NULL, b REAL NOT NULL,
	PRIMARY KEY (cloud, idx)
);
CREATE TABLE IF NOT EXISTS cloud_widths (
	cloud TEXT NOT NULL,
	idx   INTEGER NOT NULL,
	width REAL NOT NULL,
	PRIMARY KEY (cloud, idx)
);
`

// SQLiteStore is a scene store persisted in a SQLite database, for scenes
// exported from an authoring tool.
type SQLiteStore struct {
	db *sql.DB
}

var _ core.SceneStore = (*SQLiteStore)(nil)

// OpenSQLite opens (creating if needed) the scene database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open scene db: %w", err)
	}
	// A single writer keeps SQLite from returning SQLITE_BUSY between the
	// attribute setters of one pass.
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{"PRAGMA journal_mode=WAL", schema} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("init scene db: %w", err)
		}
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping scene db: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// AddObject inserts a scene object.
func (s *SQLiteStore) AddObject(obj model.SceneObject) error {
	ctx := context.Background()
	if obj.Visibility == "" {
		obj.Visibility = model.VisibilityInherited
	}
	return s.transaction(ctx, func(tx *sql.Tx) error {
		var n int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM scene_objects WHERE path = ?`, obj.Path).Scan(&n); err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("%w: %s", ErrObjectExists, obj.Path)
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO scene_objects (path, name, x, y, z, visibility, xformable, tags) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			obj.Path, obj.Name, obj.Translation.X, obj.Translation.Y, obj.Translation.Z,
			string(obj.Visibility), boolToInt(obj.Xformable), strings.Join(obj.Tags, ","),
		)
		return err
	})
}

// ListObjects returns every scene object ordered by path.
func (s *SQLiteStore) ListObjects(ctx context.Context) ([]model.SceneObject, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT path, name, x, y, z, visibility, xformable, tags FROM scene_objects ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("query scene objects: %w", err)
	}
	defer rows.Close()

	var objs []model.SceneObject
	for rows.Next() {
		var (
			o          model.SceneObject
			visibility string
			xformable  int
			tags       string
		)
		if err := rows.Scan(&o.Path, &o.Name, &o.Translation.X, &o.Translation.Y, &o.Translation.Z,
			&visibility, &xformable, &tags); err != nil {
			return nil, fmt.Errorf("scan scene object: %w", err)
		}
		o.Visibility = model.Visibility(visibility)
		o.Xformable = xformable != 0
		if tags != "" {
			o.Tags = strings.Split(tags, ",")
		}
		objs = append(objs, o)
	}
	return objs, rows.Err()
}

// DeleteObjectAt removes the object or point cloud at path, if any.
func (s *SQLiteStore) DeleteObjectAt(ctx context.Context, path string) error {
	return s.transaction(ctx, func(tx *sql.Tx) error {
		for _, q := range []string{
			`DELETE FROM cloud_points WHERE cloud = ?`,
			`DELETE FROM cloud_colors WHERE cloud = ?`,
			`DELETE FROM cloud_widths WHERE cloud = ?`,
			`DELETE FROM point_clouds WHERE path = ?`,
			`DELETE FROM scene_objects WHERE path = ?`,
		} {
			if _, err := tx.ExecContext(ctx, q, path); err != nil {
				return err
			}
		}
		return nil
	})
}

// CreatePointCloudAt defines an empty point cloud at path.
func (s *SQLiteStore) CreatePointCloudAt(ctx context.Context, path string) (core.Handle, error) {
	err := s.transaction(ctx, func(tx *sql.Tx) error {
		var n int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM scene_objects WHERE path = ?`, path).Scan(&n); err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("%w: %s", ErrObjectExists, path)
		}
		_, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO point_clouds (path, visibility) VALUES (?, ?)`,
			path, string(model.VisibilityInherited))
		return err
	})
	if err != nil {
		return "", err
	}
	return core.Handle(path), nil
}

// SetVisibility updates the visibility token of a point cloud.
func (s *SQLiteStore) SetVisibility(ctx context.Context, h core.Handle, v model.Visibility) error {
	res, err := s.db.ExecContext(ctx, `UPDATE point_clouds SET visibility = ? WHERE path = ?`, string(v), string(h))
	if err != nil {
		return fmt.Errorf("set visibility: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrNotPointCloud, h)
	}
	return nil
}

// SetPoints replaces the positions of a point cloud.
func (s *SQLiteStore) SetPoints(ctx context.Context, h core.Handle, points []model.Vec3) error {
	return s.replaceRows(ctx, h, "cloud_points", "x, y, z", len(points), func(i int) []any {
		return []any{points[i].X, points[i].Y, points[i].Z}
	})
}

// SetColors replaces the per-point colors of a point cloud.
func (s *SQLiteStore) SetColors(ctx context.Context, h core.Handle, colors []model.Vec3) error {
	return s.replaceRows(ctx, h, "cloud_colors", "r, g, b", len(colors), func(i int) []any {
		return []any{colors[i].X, colors[i].Y, colors[i].Z}
	})
}

// SetWidths replaces the per-point widths of a point cloud.
func (s *SQLiteStore) SetWidths(ctx context.Context, h core.Handle, widths []float64) error {
	return s.replaceRows(ctx, h, "cloud_widths", "width", len(widths), func(i int) []any {
		return []any{widths[i]}
	})
}

// replaceRows swaps one attribute table's rows for cloud h in a single
// transaction. table and columns are package constants, never user input.
func (s *SQLiteStore) replaceRows(ctx context.Context, h core.Handle, table, columns string, n int, values func(int) []any) error {
	cols := strings.Count(columns, ",") + 1
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", cols+2), ", ")
	insert := fmt.Sprintf(`INSERT INTO %s (cloud, idx, %s) VALUES (%s)`, table, columns, placeholders)

	return s.transaction(ctx, func(tx *sql.Tx) error {
		if err := requireCloud(ctx, tx, h); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE cloud = ?`, table), string(h)); err != nil {
			return err
		}
		stmt, err := tx.PrepareContext(ctx, insert)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for i := 0; i < n; i++ {
			args := append([]any{string(h), i}, values(i)...)
			if _, err := stmt.ExecContext(ctx, args...); err != nil {
				return fmt.Errorf("insert %s[%d]: %w", table, i, err)
			}
		}
		return nil
	})
}

// PointCloud reads back the point cloud at path.
func (s *SQLiteStore) PointCloud(ctx context.Context, path string) (model.PointCloud, error) {
	cloud := model.PointCloud{Path: path}
	var vis string
	err := s.db.QueryRowContext(ctx, `SELECT visibility FROM point_clouds WHERE path = ?`, path).Scan(&vis)
	if errors.Is(err, sql.ErrNoRows) {
		return cloud, fmt.Errorf("%w: %s", ErrNotPointCloud, path)
	}
	if err != nil {
		return cloud, fmt.Errorf("read point cloud: %w", err)
	}
	cloud.Visibility = model.Visibility(vis)

	cloud.Points, err = s.readVectors(ctx, `SELECT x, y, z FROM cloud_points WHERE cloud = ? ORDER BY idx`, path)
	if err != nil {
		return cloud, err
	}
	cloud.Colors, err = s.readVectors(ctx, `SELECT r, g, b FROM cloud_colors WHERE cloud = ? ORDER BY idx`, path)
	if err != nil {
		return cloud, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT width FROM cloud_widths WHERE cloud = ? ORDER BY idx`, path)
	if err != nil {
		return cloud, fmt.Errorf("read widths: %w", err)
	}
	defer rows.Close()
	cloud.Widths = []float64{}
	for rows.Next() {
		var w float64
		if err := rows.Scan(&w); err != nil {
			return cloud, fmt.Errorf("scan width: %w", err)
		}
		cloud.Widths = append(cloud.Widths, w)
	}
	return cloud, rows.Err()
}

func (s *SQLiteStore) readVectors(ctx context.Context, query, path string) ([]model.Vec3, error) {
	rows, err := s.db.QueryContext(ctx, query, path)
	if err != nil {
		return nil, fmt.Errorf("read vectors: %w", err)
	}
	defer rows.Close()

	out := []model.Vec3{}
	for rows.Next() {
		var v model.Vec3
		if err := rows.Scan(&v.X, &v.Y, &v.Z); err != nil {
			return nil, fmt.Errorf("scan vector: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func requireCloud(ctx context.Context, tx *sql.Tx, h core.Handle) error {
	var n int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM point_clouds WHERE path = ?`, string(h)).Scan(&n); err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotPointCloud, h)
	}
	return nil
}

// transaction executes fn within a database transaction.
func (s *SQLiteStore) transaction(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction error: %v, rollback error: %w", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
