package repository

import "github.com/doug-martin/goqu/v9"

type QueryBuilder interface {
	AddCondition(key string, value any)
	BuildConditions(aliases map[string]string) goqu.Ex
}

type queryBuilderImpl struct {
	conditions map[string]any
}

func NewQueryBuilder() QueryBuilder {
	return &queryBuilderImpl{
		conditions: make(map[string]any),
	}
}

// AddCondition adds an equality condition. A slice value becomes an IN list.
func (q *queryBuilderImpl) AddCondition(key string, value any) {
	q.conditions[key] = value
}

// BuildConditions renames keys found in aliases, e.g. to qualify a column
// with its table.
func (q *queryBuilderImpl) BuildConditions(aliases map[string]string) goqu.Ex {
	conditions := goqu.Ex{}
	for key, value := range q.conditions {
		if alias, ok := aliases[key]; ok {
			conditions[alias] = value
		} else {
			conditions[key] = value
		}
	}
	return conditions
}
