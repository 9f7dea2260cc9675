/*
Package cache shares transcodes between concurrent requests.

A Key names one output: the item, the encoder Target and the renderer's
devices.Profile. Resolve looks the key up under a single lock. A hit
attaches a new Handle to the existing job; a miss inserts a job, releases
the lock and hands the encode to a bounded worker pool. The lock is never
held while encoding or touching the spool.

Each job appends encoder output to a spool (a temporary file in SpoolDir,
or memory) and counts the bytes written. Handles implement
streaming.Media: they can read anything already written while the job is
still running and only wait for bytes that do not exist yet.

Lifetime:

  - When the encoder fails, every reader sees ErrTranscodeFailed and the
    job leaves the table, so the next Resolve starts over.
  - When the last handle of a running job is closed, the encode is
    canceled.
  - Completed jobs whose readers are gone are kept in an LRU of
    Options.Retain entries and discarded from its cold end.
*/
package cache
