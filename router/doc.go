// Package router implements the supervisor state machine that drives a user
// turn: Idle → Routing → Dispatching → (Suspended | Completed | Failed), with
// Suspended → Resuming → Dispatching on an explicit resume call.
//
// Every turn is an independent unit of execution. The supervisor resolves a
// fresh execution context, loads the latest checkpoint through the tenant
// isolation filter, runs capability nodes until the turn settles, and
// appends exactly one new checkpoint version. Suspension holds no execution
// resource; resumption reloads state in a brand-new turn. Ordering per
// thread is guaranteed by the optimistic version check on append, not by a
// held lock, since the suspended window may span days.
package router
