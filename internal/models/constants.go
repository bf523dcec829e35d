package models

const (
	// RefusalPhrase is what the prompt instructs the model to say when the
	// context cannot answer the question. The groundedness filter matches on it.
	RefusalPhrase = "i don't know"

	// OutOfScopeMessage replaces any answer the filter rejects.
	OutOfScopeMessage = "This query is out of the scope of the documentation."
)

var (
	QAPromptTemplate = `Use the following pieces of context to answer the question at the end. Answer only from the context. If the context does not contain the answer, just say "I don't know", don't try to make up an answer.

Context:
%s
Question: %s`
)
