// File: internal/concurrency/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Concurrency primitives backing the dispatcher: a worker-pool Executor
// that runs one task per RPC invocation so a slow handler can't stall the
// event loop, and a lock-free MPMC ring queue used as each connection's
// outbound message queue.
package concurrency
