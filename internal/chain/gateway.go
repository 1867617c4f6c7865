package chain

import "ClubVote/internal/interfaces"

var _ interfaces.ChainGateway = (*Client)(nil)
