// Package agent implements the dialogue agent that turns chat messages into
// scheduling actions.
//
// Each user turn is a two-hop request against the OpenAI chat-completions
// API: the first completion may request one of the calendar tools
// (get_available_slots or book_slot); if it does, the agent runs the tool
// through the Scheduler and issues a second completion with the tool result
// to produce the final natural-language reply. At most one tool call is
// executed per user turn; there is no tool loop.
//
// Model output is normalized into a tagged Outcome (PlainReply or
// ToolInvocation) so callers handle the two shapes exhaustively instead of
// pattern matching on loosely structured responses.
package agent
