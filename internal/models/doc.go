// Package models defines the data model for the track curation pipeline.
//
// The types trace the lifecycle of a track through a curation run:
//
//   - [TrackIdea] : unverified title/artist pair from a non-authoritative
//     source, awaiting canonicalization
//   - [CanonicalTrack] : metadata-verified track ready for video resolution
//   - [CuratedTrack] : persisted catalog entry, optionally carrying a
//     resolved video
//   - [ChallengeEntry] : immutable (date, position, track) snapshot served
//     to gameplay
package models
