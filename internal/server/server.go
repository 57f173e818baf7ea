package server

// Server groups the entity-specific HTTP servers. The auction server is
// the only one for now.
type Server struct {
	AuctionServer
}

func NewServer(
	auctionServer AuctionServer,
) Server {
	return Server{
		AuctionServer: auctionServer,
	}
}
