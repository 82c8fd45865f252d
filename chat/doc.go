// Package chat assembles conversational retrieval contexts. For each
// new user query the Builder pairs the chat's stored history with the
// owner's most relevant notes, expanding short follow-up queries with
// the previous user turn so pronouns and fragments still retrieve
// sensibly.
package chat
