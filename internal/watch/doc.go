// Package watch runs the progress display loop.
//
// A Loop refreshes its progress source on a fixed interval, composes a
// frame from the snapshot and presents it on every attached surface. All
// ticks run on the loop goroutine, one at a time, and a failing refresh or
// a panicking surface never stops the loop.
//
// # Usage
//
//	loop := watch.New(watch.Options{
//	    Source:   progress.NewFileSource("progress.json"),
//	    Surfaces: []display.Surface{ui},
//	    Display:  display.Options{TitlePrefix: "EOS", Commands: cmds},
//	})
//
//	handle := loop.Start(ctx)
//	defer handle.Stop()
package watch
