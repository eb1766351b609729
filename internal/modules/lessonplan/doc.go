// Package lessonplan turns a (board, class, subject, chapter, session count)
// request into a lesson plan in three cached stages:
//
//	GroupIntoSessions  request fingerprint -> ordered session maps
//	SummarizeSession   session map id      -> summary + objectives
//	DetailSession      session id          -> detailed teaching content
//
// Each stage is a Stage: look up the cache, and on a miss coalesce callers,
// take the key lock, look up again, call the generation service, persist.
package lessonplan
