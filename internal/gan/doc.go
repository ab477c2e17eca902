// Package gan trains a Wasserstein GAN with gradient penalty.
//
// A Trainer owns a generator, a critic and one optimizer per network. Each
// epoch runs NCritic critic updates followed by one generator update:
//
//	critic:    1*mean(-critic(real)) + 1*mean(critic(fake)) + λ*GP
//	generator: mean(-critic(generator(z)))
//
// Every update builds a fresh autodiff tape that watches only the parameter
// group being optimized, so the other network is read as constants and
// cannot move. The gradient penalty differentiates the critic's input
// gradient, which the tape supports through create-graph backward passes.
//
// Checkpoints are written with Save and restored with Load. The metadata
// YAML is renamed into place last, so a crash mid-save leaves the previous
// checkpoint intact.
package gan
