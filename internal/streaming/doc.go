/*
Package streaming delivers media bodies over HTTP with byte-range support
and timeout protection.

# Media

A Media is anything that can report its size and produce its bytes as a
sequence of chunks over a bounded channel: a file on disk (FileMedia) or a
transcode that is still being written (see package cache). Size separates
the bytes that can be read now (Available) from the final length (Total),
which stays nil until the producer has finished.

Producers push through Produce, which stops as soon as the consumer's
context is canceled. A slow client therefore holds at most a few chunks in
memory, and a client that disconnects stops the read that feeds it.

# Ranges

ParseRange understands "bytes=a-b" and "bytes=a-". Suffix ranges and other
forms are treated as absent. Serve answers:

	Range satisfiable (start < available)  206, Content-Range bytes s-e/total or /*
	anything else                          200, Content-Length only if total is known

A range that starts past the available bytes falls back to the full body
rather than 416.

# Timeouts

Serve writes through a TimeoutWriter, which bounds each write with a
connection write deadline and cancels the stream once no data has flowed
for IdleTimeout:

	config := streaming.DefaultTimeoutWriterConfig()
	config.IdleTimeout = 2 * time.Minute

	n, err := streaming.Serve(w, r, media, "video/mp4", config)
	if err != nil && !errors.Is(err, streaming.ErrClientGone) {
		logging.Warn("stream aborted after %d bytes: %v", n, err)
	}

The sentinel errors ErrWriteTimeout, ErrClientGone and ErrStreamCanceled
can be checked with errors.Is.
*/
package streaming
