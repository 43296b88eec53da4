// Package local implements an in-process process group.
//
// A Group hosts size ranks inside one OS process. Each rank gets an Endpoint
// (a transport.Channel) with its own unbounded mailbox and a single dispatch
// goroutine that runs message handlers and Exec closures in arrival order.
// Send never blocks on the receiver; Synchronize is a collective barrier that
// releases once every rank has arrived and the group has no message in
// flight, including messages sent by handlers while the barrier is pending.
//
// Typical SPMD usage:
//
//	g, _ := local.NewGroup(4)
//	defer g.Close()
//	err := local.Run(ctx, g, func(ctx context.Context, ch transport.Channel) error {
//	    c, _ := distgraph.NewCoordinator(ch)
//	    ...
//	    return c.Synchronize(ctx)
//	})
package local
