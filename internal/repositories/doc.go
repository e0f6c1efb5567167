// Package repositories provides the persistence layer for the curation
// pipeline.
//
//   - [CatalogRepository] : the pool of metadata-verified tracks curation
//     runs draw from and feed back into
//   - [ChallengeRepository] : the transactional sink for daily challenge
//     entries
//
// The challenge commit is the only multi-statement write in the system and
// runs in a single transaction; everything else is row-at-a-time.
package repositories
