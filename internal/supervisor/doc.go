// Package supervisor builds the suture tree trackview runs under.
//
// The tree has three layers, each its own child supervisor so a crash loop
// in one layer backs off without stopping the others:
//
//	trackview
//	├── feed-layer      upstream sources (watermill subscribers)
//	├── pipeline-layer  the transform pipeline, itself a supervisor of stages
//	└── control-layer   seek coordinator, HTTP status/metrics server
package supervisor
