// Package storedproc calls stored procedures and decodes their
// {errorCode, data} result rows into typed envelopes.
//
// A procedure may return either a row with an error code column and a data
// column, or a single json value shaped like an envelope. Both are read
// through to_jsonb, so the gateway always scans one JSON document:
//
//	SELECT to_jsonb(r) FROM sp_order_get_by_id(p_order_id => $1) AS r
//
// Transport, driver, timeout and decoding failures never surface as Go
// errors. They become an envelope with ErrorCode 500, so callers have a single
// failure channel.
package storedproc

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// Querier is satisfied by pgx connections, pools, transactions and the unit
// of work.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Param is one named procedure argument.
type Param struct {
	Name  string
	Value any
}

// P builds a Param.
func P(name string, value any) Param {
	return Param{Name: name, Value: value}
}

// JSONParam serialises value as one structured argument, used for child
// collections that must be written by the same call as their parent.
func JSONParam(name string, value any) (Param, error) {
	b, err := json.Marshal(value)
	if err != nil {
		return Param{}, fmt.Errorf("encode %s: %w", name, err)
	}
	return Param{Name: name, Value: string(b)}, nil
}

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Gateway invokes procedures through a Querier.
type Gateway struct {
	q       Querier
	timeout time.Duration
	logger  *zap.Logger
}

type Option func(*Gateway)

// WithTimeout bounds every call. An expired call is a transport failure.
func WithTimeout(d time.Duration) Option {
	return func(g *Gateway) { g.timeout = d }
}

func WithLogger(l *zap.Logger) Option {
	return func(g *Gateway) {
		if l != nil {
			g.logger = l
		}
	}
}

func NewGateway(q Querier, opts ...Option) *Gateway {
	g := &Gateway{q: q, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Call invokes procedure with params and decodes the result into T.
func Call[T any](ctx context.Context, g *Gateway, procedure string, params ...Param) Envelope[T] {
	query, args, err := BuildQuery(procedure, params)
	if err != nil {
		return failed(g, "build query", Internal[T](procedure, err))
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	var row []byte
	if err := g.q.QueryRow(ctx, query, args...).Scan(&row); err != nil {
		return failed(g, "query", Internal[T](procedure, fmt.Errorf("%s: %w", procedure, err)))
	}

	env := decode[T](procedure, row)
	if env.Cause != nil {
		return failed(g, "decode", env)
	}
	return env
}

// failed logs a 500 envelope and returns it unchanged.
func failed[T any](g *Gateway, stage string, env Envelope[T]) Envelope[T] {
	g.logger.Error("stored procedure call failed",
		zap.String("procedure", env.Procedure),
		zap.String("stage", stage),
		zap.Int("error_code", env.ErrorCode),
		zap.Error(env.Cause),
	)
	return env
}

// BuildQuery renders the call in named notation. Identifiers are validated
// and the procedure name is quoted; values are always bound.
func BuildQuery(procedure string, params []Param) (string, []any, error) {
	parts := strings.Split(procedure, ".")
	for _, part := range parts {
		if !identifier.MatchString(part) {
			return "", nil, fmt.Errorf("invalid procedure name %q", procedure)
		}
	}

	named := make([]string, 0, len(params))
	args := make([]any, 0, len(params))
	seen := make(map[string]struct{}, len(params))
	for i, p := range params {
		if !identifier.MatchString(p.Name) {
			return "", nil, fmt.Errorf("invalid parameter name %q for %s", p.Name, procedure)
		}
		key := strings.ToLower(p.Name)
		if _, dup := seen[key]; dup {
			return "", nil, fmt.Errorf("duplicate parameter %q for %s", p.Name, procedure)
		}
		seen[key] = struct{}{}

		named = append(named, fmt.Sprintf("%s => $%d", p.Name, i+1))
		args = append(args, p.Value)
	}

	query := fmt.Sprintf("SELECT to_jsonb(r) FROM %s(%s) AS r",
		pgx.Identifier(parts).Sanitize(), strings.Join(named, ", "))
	return query, args, nil
}
