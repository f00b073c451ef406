/*
Package domain contains the core domain models shared by the script host.

It defines the identity of a discovered script, the lifecycle states of a running
instance, keyboard transition events and the sentinel errors returned by the
scheduler. This package is kept pure and free of I/O, following the same
Hexagonal Architecture split as the rest of the host: providers, the loader and
the scheduler all depend on it, never the other way around.

# Key Entities

  - Descriptor: identity, originating module and declared dependencies of a script.
  - ScriptState: NotStarted, Running, Aborted or Unloaded.
  - KeyEvent: a single key transition relayed to every running script.
  - ScriptStatus: a read-only snapshot used for introspection.
*/
package domain
