// Package feed connects the pipeline to the upstream track feed over
// watermill.
//
// Source subscribes to the envelope topic and hands each message body to
// the pipeline. Publisher implements seek.SubscriptionPublisher by
// publishing encoded SubscriptionRequest envelopes on the subscription
// topic. The transport is either an in-process gochannel pubsub or NATS
// core.
package feed
