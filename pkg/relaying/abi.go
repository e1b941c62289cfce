package relaying

// Minimal ABIs of the relaying contracts, limited to the methods this package calls.

const SmartWalletFactoryABI = `[
	{"type":"function","name":"getSmartWalletAddress","stateMutability":"view",
	 "inputs":[{"name":"owner","type":"address"},{"name":"recoverer","type":"address"},{"name":"index","type":"uint256"}],
	 "outputs":[{"name":"","type":"address"}]},
	{"type":"function","name":"nonce","stateMutability":"view",
	 "inputs":[{"name":"from","type":"address"}],
	 "outputs":[{"name":"","type":"uint256"}]}
]`

const VerifierABI = `[
	{"type":"function","name":"acceptsToken","stateMutability":"view",
	 "inputs":[{"name":"token","type":"address"}],
	 "outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"getAcceptedTokens","stateMutability":"view",
	 "inputs":[],
	 "outputs":[{"name":"","type":"address[]"}]},
	{"type":"function","name":"acceptToken","stateMutability":"nonpayable",
	 "inputs":[{"name":"token","type":"address"}],
	 "outputs":[]}
]`

const ERC20ABI = `[
	{"type":"function","name":"balanceOf","stateMutability":"view",
	 "inputs":[{"name":"account","type":"address"}],
	 "outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"transfer","stateMutability":"nonpayable",
	 "inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],
	 "outputs":[{"name":"","type":"bool"}]}
]`

const SmartWalletABI = `[
	{"type":"function","name":"nonce","stateMutability":"view",
	 "inputs":[],
	 "outputs":[{"name":"","type":"uint256"}]}
]`

const RelayHubABI = `[
	{"type":"event","name":"RelayServerRegistered","anonymous":false,
	 "inputs":[{"name":"relayManager","type":"address","indexed":true},
	           {"name":"relayUrl","type":"string","indexed":false}]}
]`
