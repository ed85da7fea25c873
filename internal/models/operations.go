package models

const (
	OP_STAKING_START       = "staking_start"
	OP_STAKING_ADD_FUNDS   = "staking_add_funds"
	OP_STAKING_CLAIM       = "staking_claim"
	OP_STAKING_RESTAKE     = "staking_restake"
	OP_STAKING_REQ_UNSTAKE = "staking_request_unstake"
	OP_STAKING_UNSTAKE     = "staking_unstake"

	OP_BASIC_STAKE   = "basic_stake"
	OP_BASIC_UNSTAKE = "basic_claim_unstake"

	OP_VESTING_CLAIM       = "vesting_claim"
	OP_VESTING_RELEASE     = "vesting_release"
	OP_VESTING_RELEASE_ALL = "vesting_release_all"

	OP_ADMIN_SETTINGS       = "admin_settings"
	OP_ADMIN_POOL_CONFIG    = "admin_pool_config"
	OP_ADMIN_PERIOD_CONFIG  = "admin_period_config"
	OP_ADMIN_VESTING_POOL   = "admin_vesting_pool"
	OP_ADMIN_VESTING_WALLET = "admin_vesting_wallet"
	OP_ADMIN_MERKLE_ROOT    = "admin_merkle_root"
	OP_ADMIN_CLIFF_START    = "admin_cliff_start"
	OP_ADMIN_ROLE           = "admin_role"
)
