// Package session answers questions per project and keeps the conversation.
//
// The Manager runs every question for a project as one unit of work under
// that project's lock: index build, retrieval, generation, post-processing
// and the history append. Questions for one project are answered strictly in
// the order they were accepted; different projects proceed in parallel. A
// question that fails or is canceled leaves the history untouched.
package session
