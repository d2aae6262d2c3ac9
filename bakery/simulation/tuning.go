package simulation

// Every task family draws from its own stream of seeds so adding a seller never changes what a chef does.
const (
	seedStrideSellers    = 1_000
	seedStrideProducers  = 2_000
	seedStrideFinishers  = 3_000
	seedStrideRestockers = 4_000
	seedGenerator        = 5_000
)
