package models

// OperationName identifies an AI-backed feature whose provider routing is
// independently configurable. The set is fixed at compile time.
type OperationName string

const (
	OpAssistantIA       OperationName = "assistant-ia"
	OpDocumentIndexing  OperationName = "document-indexing"
	OpCaseFileAssistant OperationName = "case-file-assistant"
	OpCaseFileConsult   OperationName = "case-file-consultation"
	OpKBQualityLong     OperationName = "kb-quality-analysis-long"
	OpKBQualityShort    OperationName = "kb-quality-analysis-short"
)

// KnownOperations returns every configurable operation, in stable order.
func KnownOperations() []OperationName {
	return []OperationName{
		OpAssistantIA,
		OpDocumentIndexing,
		OpCaseFileAssistant,
		OpCaseFileConsult,
		OpKBQualityLong,
		OpKBQualityShort,
	}
}

// IsKnownOperation reports whether name is part of the closed operation set.
func IsKnownOperation(name OperationName) bool {
	for _, op := range KnownOperations() {
		if op == name {
			return true
		}
	}
	return false
}
