/*
Package logging is the entry point to catlog for applications.

A Logger is opened from a configuration file (or an in-memory config).
Categories are obtained off it by name, and log at one of six levels:

	lg, err := logging.Open("catlog.conf")
	if err != nil {
		return err
	}
	defer lg.Close()

	db := lg.Category("db")
	db.Info("connected to %s", addr)
	db.Warn("slow query took %v", d)

Each call records the file, line and function of its caller, and is
dispatched to every rule of its category (or of the wildcard category "*")
whose level filter accepts it.

Fatal only logs. It never exits the process.

Values put in the mapped diagnostic context (PutMDC) belong to the calling
goroutine.

NOTE

Logging calls return an error, which most callers ignore. A category with no
matching rule costs one lookup: the message is not even formatted.
*/
package logging
