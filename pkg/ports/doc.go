/*
Package ports defines the contracts between the scheduler and the code it hosts.

These interfaces decouple the scheduler from the way scripts are written or
discovered, so Lua sources, external processes and compiled-in Go scripts are all
driven through the same lifecycle.

# Key Interfaces

  - Script: a unit of extension logic ticked once per frame.
  - Runtime: the handle a script uses to yield, wait and reach the host goroutine.
  - Provider: turns a file under the scripts root into a Module of ScriptTypes.
*/
package ports
