// Package l1wire owns Layer 1 (Wire) of the track stream model.
//
// Responsibilities: the binary envelope schema, decoding raw envelope bytes
// into a tagged Event, and encoding envelopes for upstream requests and
// fixtures. Key types: Envelope, Payload, Event, Kind.
//
// Envelopes are protobuf-encoded. The schema is small and stable, so it is
// read and written field by field with protowire rather than generated code:
//
//	message Envelope {
//	  string schema_version = 1;
//	  uint64 server_ts_ms   = 2;
//	  oneof payload {
//	    TrackDeltaBatch     track_delta_batch    = 10;
//	    AlertUpsert         alert_upsert         = 11;
//	    ProviderStatus      provider_status      = 12;
//	    SnapshotMeta        snapshot_meta        = 13;
//	    LinkUpsert          link_upsert          = 14;
//	    SubscriptionRequest subscription_request = 15;
//	    SubscriptionAck     subscription_ack     = 16;
//	  }
//	}
//
// Dependency rule: L1 depends on nothing else in internal/tracks.
package l1wire
