package spend_core

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"github.com/spendkit/spend_service/spend_model"
	"gorm.io/datatypes"
)

// Rule conditions are stored as JSON maps. The evaluator path treats a
// condition as field-name -> expected-value equality checks; the approver
// selector path recognizes a closed set of threshold predicates. Both
// decoders fail closed on anything they do not recognize.

type PredicateKind int

const (
	PredicateUnsupported PredicateKind = iota
	PredicateAmountGreater
	PredicateAmountLess
	PredicateCategoryEquals
)

type Predicate struct {
	Kind   PredicateKind
	Number float64
	Text   string
}

// DecodeSelectorCondition maps a stored condition onto the threshold
// predicate set used by approver selection. Unknown keys decode to
// PredicateUnsupported, which never matches.
func DecodeSelectorCondition(cond datatypes.JSONMap) []Predicate {
	preds := make([]Predicate, 0, len(cond))

	for key, raw := range cond {
		switch key {
		case "amount_gt":
			if num, ok := toFloat(raw); ok {
				preds = append(preds, Predicate{Kind: PredicateAmountGreater, Number: num})
				continue
			}
			preds = append(preds, Predicate{Kind: PredicateUnsupported})
		case "amount_lt":
			if num, ok := toFloat(raw); ok {
				preds = append(preds, Predicate{Kind: PredicateAmountLess, Number: num})
				continue
			}
			preds = append(preds, Predicate{Kind: PredicateUnsupported})
		case "category":
			text, _ := raw.(string)
			preds = append(preds, Predicate{Kind: PredicateCategoryEquals, Text: text})
		default:
			preds = append(preds, Predicate{Kind: PredicateUnsupported})
		}
	}

	return preds
}

// MatchCondition is the evaluator-path matcher: every entry must equal the
// spend's current value for that field. A field name the spend does not
// expose never matches.
func MatchCondition(cond datatypes.JSONMap, spend *spend_model.SpendEvent) bool {
	for field, expected := range cond {
		value, ok := spendField(spend, field)
		if !ok {
			return false
		}

		if !looseEqual(value, expected) {
			return false
		}
	}

	return true
}

func spendField(spend *spend_model.SpendEvent, name string) (any, bool) {
	switch name {
	case "amount":
		return spend.Amount, true
	case "currency":
		return spend.Currency, true
	case "source":
		return spend.Source, true
	case "status":
		return string(spend.Status), true
	case "description":
		return spend.Description, true
	}

	return nil, false
}

func looseEqual(value, expected any) bool {
	if vn, ok := toFloat(value); ok {
		en, eok := toFloat(expected)
		return eok && vn == en
	}

	vs, vok := value.(string)
	es, eok := expected.(string)
	if vok && eok {
		return vs == es
	}

	return value == expected
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}

	return 0, false
}

type Action struct {
	Type         string
	ApproverID   *uuid.UUID
	ApproverRole spend_model.Role
	Raw          datatypes.JSONMap
}

// DecodeAction pulls the fields the workflow understands out of a stored
// action payload. Unknown action types pass through untouched so callers
// can ignore them.
func DecodeAction(raw datatypes.JSONMap) Action {
	action := Action{Raw: raw}

	if t, ok := raw["type"].(string); ok {
		action.Type = t
	}

	if id, ok := raw["approver"].(string); ok {
		if parsed, err := uuid.Parse(id); err == nil {
			action.ApproverID = &parsed
		}
	}

	if role, ok := raw["approver_role"].(string); ok && strings.TrimSpace(role) != "" {
		action.ApproverRole = spend_model.Role(role)
	}

	return action
}
