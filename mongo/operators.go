package mongo

import "github.com/quillcms/quill/core/query"

// operatorSymbols maps comparison operators with a direct document-store
// counterpart. The map is built once and never mutated. Operators absent here
// (like, contains, within, intersects, near) have no single symbol and are
// expanded into composite fragments by the translator.
var operatorSymbols = map[query.Operator]string{
	query.OperatorEquals:           "$eq",
	query.OperatorNotEquals:        "$ne",
	query.OperatorIn:               "$in",
	query.OperatorNotIn:            "$nin",
	query.OperatorAll:              "$all",
	query.OperatorExists:           "$exists",
	query.OperatorGreaterThan:      "$gt",
	query.OperatorGreaterThanEqual: "$gte",
	query.OperatorLessThan:         "$lt",
	query.OperatorLessThanEqual:    "$lte",
}

// operatorSymbol looks up the native symbol for an operator. The second
// return is false for operators that need a composite fragment instead.
func operatorSymbol(op query.Operator) (string, bool) {
	symbol, ok := operatorSymbols[op]
	return symbol, ok
}
