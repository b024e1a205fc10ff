package io

import "context"

type Producer interface {
	Produce(ctx context.Context, jobs <-chan FileJob) error
}

type Consumer interface {
	Consume(ctx context.Context, work <-chan *WorkUnit) error
}
