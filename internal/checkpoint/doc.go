// Package checkpoint splits a message log into checkpoint batches and
// selects the batches worth re-verifying with a resumed read.
//
// A batch is one STATE message followed by the records emitted after it and
// before the next STATE message:
//
//	[S0 R1 R2 S1 R3]  =>  (S0,[R1 R2]) (S1,[R3])
//
// Messages other than records and states never start or join a batch.
package checkpoint
