/*
Package camp composes a basecamp app out of the subsystems the environment switches on.

camp.New resolves the capability snapshot exactly once, validates the
environment's fatal tier, and wires every component off that one snapshot:
which OAuth providers register, how sessions persist, which cache backend
serves, and what the health endpoint reports. The same build runs with
zero optional services or all of them.
*/
package camp
