package zipcore

// ProgressReporter is called as a member streams through the decompression pipeline.
//
//   - name: the member's Entry.Name
//   - written: cumulative uncompressed bytes written to the sink so far
//   - done: true only on the final call for this member, made once the payload stream has ended and before
//     the size and CRC-32 checks (so it is also made when those checks then fail)
type ProgressReporter func(name string, written int64, done bool)
