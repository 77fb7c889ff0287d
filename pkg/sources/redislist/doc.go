/*
Package redislist streams the contents of Redis keys.

FromList pages through a list with LRANGE and FromScan walks the keyspace
with SCAN. Both fetch one page per round trip, only when the stream needs
more elements, so a Limit or a short-circuiting terminal stops issuing
commands early:

	rdb := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	defer rdb.Close()

	errorsSeen, err := redislist.FromList(rdb, "events", 500).
		Filter(func(line string) bool { return strings.Contains(line, "ERROR") }).
		Count(ctx)

The client is owned by the caller; closing a stream never closes it.
Command failures end the stream with an *errors.OperationError naming the
command and the position reached.
*/
package redislist
