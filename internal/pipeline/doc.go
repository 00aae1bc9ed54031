// Package pipeline implements the upload analysis pipeline: parsing a
// delimited byte blob into a raw table, reconciling loosely named
// columns into the canonical {date, amount, customer_id} schema,
// aggregating per-day revenue KPIs, and evaluating the most recent day
// against its trailing baseline.
//
// The pipeline is a pure, request-scoped computation. Every call to
// Process recomputes everything from its input bytes; nothing is shared
// between invocations, so it is safe to run from concurrent requests.
//
// Two user-facing failure modes exist: ParseError (the bytes are not a
// delimited table at all) and SchemaError (the table parsed but no
// header matched one of the required field groups). Both surface
// through Process as a UserError whose message is meant to be rendered
// to the person who uploaded the file. Row-level irregularities never
// fail an upload; bad cells drop their row and the pipeline carries on.
package pipeline
