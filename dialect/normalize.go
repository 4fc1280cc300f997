package dialect

import "github.com/sqlkit/sqlkit/expr"

// normalizeSelect hoists every CTE carried by a set-operation arm (and its
// own nested arms, recursively) up onto the outermost query, and rejects
// ORDER BY/LIMIT/OFFSET on anything but the outermost query of a compound
// statement. It never mutates its argument; callers further down the tree
// still hold the original, unmodified builder output.
func normalizeSelect(q *expr.SelectQuery) (*expr.SelectQuery, error) {
	if len(q.SetOps) == 0 {
		return q, nil
	}

	out := *q
	ctes := append([]expr.CTE{}, q.CTEs...)
	seen := make(map[string]bool, len(ctes))
	for _, cte := range ctes {
		seen[cte.Name] = true
	}

	setOps := make([]expr.SetOperation, len(q.SetOps))
	for i, so := range q.SetOps {
		arm := so.Query
		if len(arm.OrderBy) > 0 || arm.Limit != nil || arm.LimitExpr != nil || arm.Offset != nil {
			return nil, errInvalidSetOperation("only the outermost query of a compound statement may carry ORDER BY, LIMIT or OFFSET")
		}

		normArm, err := normalizeSelect(arm)
		if err != nil {
			return nil, err
		}
		armCopy := *normArm
		for _, cte := range armCopy.CTEs {
			if seen[cte.Name] {
				continue
			}
			seen[cte.Name] = true
			ctes = append(ctes, cte)
		}
		armCopy.CTEs = nil
		setOps[i] = expr.SetOperation{Operator: so.Operator, Query: &armCopy}
	}

	out.CTEs = ctes
	out.SetOps = setOps
	return &out, nil
}
