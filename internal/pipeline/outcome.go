package pipeline

// Outcome labels what the parse stage did with a fetched result.
type Outcome string

// Parse-stage outcomes. Retried is the only non-terminal one.
const (
	OutcomeProcessed     Outcome = "processed"
	OutcomeRetried       Outcome = "retried"
	OutcomeUnroutable    Outcome = "unroutable"
	OutcomeProcessFailed Outcome = "process_failed"
	OutcomeExhausted     Outcome = "exhausted"
	OutcomeDropped       Outcome = "dropped"
)

var allOutcomes = []Outcome{
	OutcomeProcessed,
	OutcomeRetried,
	OutcomeUnroutable,
	OutcomeProcessFailed,
	OutcomeExhausted,
	OutcomeDropped,
}
