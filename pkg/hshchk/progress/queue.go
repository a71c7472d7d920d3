package progress

// unbounded returns a channel pair backed by a growing buffer: sends on in
// only wait for the buffering goroutine, never for the consumer of out.
// Closing in closes out once every buffered value has been delivered.
func unbounded[T any]() (chan<- T, <-chan T) {
	in := make(chan T)
	out := make(chan T)

	go func() {
		defer close(out)

		var queue []T
		var zero T
		for {
			if len(queue) == 0 {
				v, ok := <-in
				if !ok {
					return
				}
				queue = append(queue, v)
				continue
			}

			select {
			case v, ok := <-in:
				if !ok {
					for _, q := range queue {
						out <- q
					}
					return
				}
				queue = append(queue, v)
			case out <- queue[0]:
				queue[0] = zero
				queue = queue[1:]
			}
		}
	}()

	return in, out
}
