/*
Package scripthost hosts dynamically discovered scripts inside a frame-driven
host application.

Scripts are found under a root directory by providers (Lua source files,
process manifests) or compiled into the binary as builtin modules. They are
started in dependency order and each runs on its own goroutine, but only one
party runs at a time: the host goroutine hands control to every script once
per Tick and takes it back when the script yields. A script that does not
yield within runtime.WatchdogTimeout is aborted. Work that must happen on the
host (game state access through native functions) is handed over to the host
and executed before the script resumes.

# Usage

	host := scripthost.New("scripts",
		scripthost.WithLogger(logger),
		scripthost.WithNatives(natives),
	)
	if err := host.Init(ctx); err != nil {
		log.Fatal(err)
	}
	for range frames {
		host.Tick(ctx)
	}
	_ = host.Shutdown(ctx)

Keyboard input is fed from any goroutine with KeyboardMessage. Pressing the
reload key (Insert by default) unloads every script and loads them again at
the end of the next Tick.
*/
package scripthost
