package sqldb

import (
	"fmt"
	"strings"

	"github.com/zoobzio/astql"
	"github.com/zoobzio/sieve"
	"github.com/zoobzio/sieve/internal/fieldkind"
)

// pushdown is a plan split into what the database evaluates and what is left
// for memory.
type pushdown struct {
	pushed   []*sieve.Compare
	residual sieve.Expr
	// ordered reports that every sort key maps to a NOT NULL column, so the
	// database orders rows the same way sieve.SortRecords would.
	ordered bool
}

// selectQuery describes one SELECT against the table.
type selectQuery struct {
	pushed []*sieve.Compare
	order  []sieve.SortKey
	offset int
	limit  int
}

// operatorMap translates comparison conditions to ASTQL operators.
var operatorMap = map[sieve.Condition]astql.Operator{
	sieve.Equals:         astql.EQ,
	sieve.GreaterThan:    astql.GT,
	sieve.LessThan:       astql.LT,
	sieve.GreaterOrEqual: astql.GE,
	sieve.LessOrEqual:    astql.LE,
	sieve.Contains:       astql.LIKE,
	sieve.StartsWith:     astql.LIKE,
	sieve.EndsWith:       astql.LIKE,
}

func (s *Store[T]) split(plan sieve.Plan) pushdown {
	var sp pushdown
	var rest []sieve.Expr
	for _, e := range sieve.Conjuncts(plan.Criteria) {
		if c, ok := e.(*sieve.Compare); ok && s.pushable(c) {
			sp.pushed = append(sp.pushed, c)
			// LIKE narrows rows, but its case rules are the database's. The
			// comparison is repeated in memory so text matching stays ordinal.
			if operatorMap[c.Condition] != astql.LIKE {
				continue
			}
		}
		rest = append(rest, e)
	}
	sp.residual = sieve.AllOf(rest...)

	sp.ordered = true
	for _, k := range plan.Order {
		col, ok := s.columnOf(k.Path)
		if !ok || col.nullable {
			sp.ordered = false
			break
		}
	}
	return sp
}

func (s *Store[T]) columnOf(path sieve.FieldPath) (column, bool) {
	if path.Len() != 1 {
		return column{}, false
	}
	col, ok := s.byField[path.Steps()[0].Name]
	return col, ok
}

func (s *Store[T]) pushable(c *sieve.Compare) bool {
	col, ok := s.columnOf(c.Path)
	if !ok || col.kind == fieldkind.Bytes || col.kind == fieldkind.Unsupported {
		return false
	}
	if _, ok := operatorMap[c.Condition]; !ok {
		return false
	}
	if _, ok := likePattern(c); !ok {
		return false
	}
	return true
}

// likePattern builds the LIKE pattern for text conditions. Values holding a
// wildcard or the escape character are not pushed.
func likePattern(c *sieve.Compare) (string, bool) {
	switch c.Condition {
	case sieve.Contains, sieve.StartsWith, sieve.EndsWith:
	default:
		return "", true
	}
	v := c.Value.String()
	if strings.ContainsAny(v, `%_\`) {
		return "", false
	}
	switch c.Condition {
	case sieve.Contains:
		return "%" + v + "%", true
	case sieve.StartsWith:
		return v + "%", true
	default:
		return "%" + v, true
	}
}

// where adds the pushed conjuncts to builder and returns their parameters,
// named p0, p1, ... in order.
func (s *Store[T]) where(builder *astql.Builder, pushed []*sieve.Compare) (*astql.Builder, map[string]any, error) {
	params := make(map[string]any, len(pushed))
	if len(pushed) == 0 {
		return builder, params, nil
	}

	conditionItems := s.instance.ConditionItems()
	for i, c := range pushed {
		col, _ := s.columnOf(c.Path)

		f, err := s.instance.TryF(col.name)
		if err != nil {
			return builder, nil, fmt.Errorf("invalid field %q: %w", col.name, err)
		}

		name := fmt.Sprintf("p%d", i)
		p, err := s.instance.TryP(name)
		if err != nil {
			return builder, nil, fmt.Errorf("invalid param %q: %w", name, err)
		}

		condition, err := s.instance.TryC(f, operatorMap[c.Condition], p)
		if err != nil {
			return builder, nil, fmt.Errorf("invalid condition on %q: %w", col.name, err)
		}
		conditionItems = append(conditionItems, condition)

		if pattern, _ := likePattern(c); pattern != "" {
			params[name] = pattern
		} else {
			params[name] = c.Value.Interface()
		}
	}

	if len(conditionItems) == 1 {
		return builder.Where(conditionItems[0]), params, nil
	}
	andGroup, err := s.instance.TryAnd(conditionItems...)
	if err != nil {
		return builder, nil, fmt.Errorf("invalid AND condition: %w", err)
	}
	return builder.Where(andGroup), params, nil
}

// buildSelect renders q as a SELECT of every mapped column.
func (s *Store[T]) buildSelect(q selectQuery) (*astql.QueryResult, map[string]any, error) {
	t, err := s.instance.TryT(s.tableName)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid table %q: %w", s.tableName, err)
	}
	builder := astql.Select(t)

	fields := s.instance.Fields()
	for _, c := range s.columns {
		f, err := s.instance.TryF(c.name)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid field %q: %w", c.name, err)
		}
		fields = append(fields, f)
	}
	builder = builder.Fields(fields...)

	builder, params, err := s.where(builder, q.pushed)
	if err != nil {
		return nil, nil, err
	}

	for _, k := range q.order {
		col, _ := s.columnOf(k.Path)
		f, err := s.instance.TryF(col.name)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid field %q: %w", col.name, err)
		}
		dir := astql.ASC
		if k.Descending {
			dir = astql.DESC
		}
		builder = builder.OrderBy(f, dir)
	}

	if q.limit >= 0 {
		builder = builder.Limit(q.limit)
		if q.offset > 0 {
			builder = builder.Offset(q.offset)
		}
	}

	result, err := builder.Render(s.renderer)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to render SELECT query: %w", err)
	}
	return result, params, nil
}

// buildCount renders a COUNT(*) over the pushed conjuncts.
func (s *Store[T]) buildCount(pushed []*sieve.Compare) (*astql.QueryResult, map[string]any, error) {
	t, err := s.instance.TryT(s.tableName)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid table %q: %w", s.tableName, err)
	}

	builder, params, err := s.where(astql.Count(t), pushed)
	if err != nil {
		return nil, nil, err
	}

	result, err := builder.Render(s.renderer)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to render COUNT query: %w", err)
	}
	return result, params, nil
}
