// Package repository содержит реализацию хранилища параметров в PostgreSQL.
package repository

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/mmeshcher/wakeup-challenge/internal/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrParameterNotFound возвращается, если параметр отсутствует в хранилище.
var ErrParameterNotFound = errors.New("parameter not found")

// Имена параметров сервиса. Полное имя в хранилище — "/<app>/<имя>".
const (
	ParamLastConfirmation = "last-confirmation-time"
	ParamLastNotification = "last-notification"
	ParamLastPayouts      = "last-payouts"
	ParamPriceToday       = "price-today"
)

// PostgresStore предоставляет доступ к именованным параметрам в PostgreSQL.
// Семантика записи — last-write-wins, транзакций между ключами нет.
type PostgresStore struct {
	pool   *pgxpool.Pool
	prefix string
}

// NewPostgresStore создаёт хранилище параметров для указанного пространства имён
// и инициализирует схему БД через миграции.
func NewPostgresStore(dsn, namespace string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &PostgresStore{
		pool:   pool,
		prefix: "/" + strings.Trim(namespace, "/") + "/",
	}

	if err := s.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	if err := s.seedDefaults(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

func (s *PostgresStore) runMigrations(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(s.pool)
	defer db.Close()

	goose.SetBaseFS(migrationsFS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

// seedDefaults заводит обязательные параметры пространства имён, если их ещё нет.
func (s *PostgresStore) seedDefaults(ctx context.Context) error {
	defaults := map[string]string{
		ParamLastConfirmation: "",
		ParamLastNotification: "",
		ParamLastPayouts:      "[]",
		ParamPriceToday:       "",
	}

	for name, value := range defaults {
		_, err := s.pool.Exec(ctx,
			`INSERT INTO parameters (name, value) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING`,
			s.prefix+name, value,
		)
		if err != nil {
			return fmt.Errorf("seed parameter %s: %w", name, err)
		}
	}

	return nil
}

func (s *PostgresStore) withRetry(ctx context.Context, fn func() error) error {
	var err error
	delays := []time.Duration{1 * time.Second, 3 * time.Second, 5 * time.Second}

	for i := 0; i <= len(delays); i++ {
		err = fn()
		if err == nil {
			return nil
		}

		// Если ошибка контекста — выходим сразу
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			// Ретраи полезны для Serialization Failure или Deadlocks.
			if pgErr.Code == pgerrcode.SerializationFailure || pgErr.Code == pgerrcode.DeadlockDetected {
				if i < len(delays) {
					time.Sleep(delays[i])
					continue
				}
			}
		}

		// Если это не pg-ошибка, но сетевая
		if isConnectionError(err) {
			if i < len(delays) {
				time.Sleep(delays[i])
				continue
			}
		}

		break
	}
	return err
}

func isConnectionError(err error) bool {
	// Упрощенная проверка на ошибки соединения
	return strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "broken pipe") ||
		strings.Contains(err.Error(), "connection reset by peer")
}

// Close закрывает пул соединений с БД.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// GetParameter возвращает параметр по короткому имени внутри пространства имён.
func (s *PostgresStore) GetParameter(ctx context.Context, name string) (model.Parameter, error) {
	var p model.Parameter

	err := s.withRetry(ctx, func() error {
		row := s.pool.QueryRow(ctx,
			`SELECT name, value, updated_at FROM parameters WHERE name = $1`,
			s.prefix+name,
		)
		return row.Scan(&p.Name, &p.Value, &p.LastModified)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Parameter{}, fmt.Errorf("%w: %s", ErrParameterNotFound, name)
		}
		return model.Parameter{}, fmt.Errorf("get parameter %s: %w", name, err)
	}

	p.Name = strings.TrimPrefix(p.Name, s.prefix)
	return p, nil
}

// SetParameter записывает значение параметра, перезаписывая прежнее.
// Время изменения фиксируется часами базы данных.
func (s *PostgresStore) SetParameter(ctx context.Context, name, value string) error {
	err := s.withRetry(ctx, func() error {
		_, execErr := s.pool.Exec(ctx,
			`INSERT INTO parameters (name, value, updated_at)
			 VALUES ($1, $2, NOW())
			 ON CONFLICT (name) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`,
			s.prefix+name, value,
		)
		return execErr
	})
	if err != nil {
		return fmt.Errorf("set parameter %s: %w", name, err)
	}
	return nil
}

// GetParametersByPrefix возвращает все параметры пространства имён,
// отображение короткого имени на параметр.
func (s *PostgresStore) GetParametersByPrefix(ctx context.Context) (map[string]model.Parameter, error) {
	params := make(map[string]model.Parameter)

	err := s.withRetry(ctx, func() error {
		rows, qErr := s.pool.Query(ctx,
			`SELECT name, value, updated_at FROM parameters WHERE name LIKE $1`,
			s.prefix+"%",
		)
		if qErr != nil {
			return qErr
		}
		defer rows.Close()

		for rows.Next() {
			var p model.Parameter
			if scanErr := rows.Scan(&p.Name, &p.Value, &p.LastModified); scanErr != nil {
				return scanErr
			}
			p.Name = strings.TrimPrefix(p.Name, s.prefix)
			params[p.Name] = p
		}

		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("get parameters: %w", err)
	}

	return params, nil
}
