/*
Package cache provides best-effort key/value caching with TTLs and tag-based invalidation.

Two stores implement the Cacher contract: a MemoryCache that is always available,
and a RedisStore that uses a remote Redis backend opportunistically.
The RedisStore never surfaces a backend failure to its caller;
a miss is the worst outcome of any operation,
and callers fall through to their own production path.
*/
package cache
