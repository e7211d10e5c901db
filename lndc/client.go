// Package lndc pulls the channel graph from a running lnd node and turns
// it into the same snapshot records the JSON snapshot source produces.
package lndc

import (
	"context"
	"crypto/x509"
	"encoding/hex"
	"os"

	"github.com/lightningnetwork/lnd/lnrpc"
	"github.com/pkg/errors"
	"github.com/the-lightning-land/jammed/jdb"
	"github.com/the-lightning-land/jammed/snapshot"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/metadata"
)

type Client struct {
	client  lnrpc.LightningClient
	context context.Context
}

type Config struct {
	TlsCertPath  string
	RpcServer    string
	MacaroonPath string
}

func NewClient(config *Config) (*Client, error) {
	cert, err := makeTlsCertFromPath(config.TlsCertPath)
	if err != nil {
		return nil, errors.Errorf("Could not make TLS cert: %v", err)
	}

	creds := credentials.NewClientTLSFromCert(cert, "")

	conn, err := grpc.Dial(config.RpcServer, grpc.WithTransportCredentials(creds))
	if err != nil {
		return nil, errors.Errorf("Could not connect to lightning node: %v", err)
	}

	client := lnrpc.NewLightningClient(conn)

	macaroon, err := makeMacaroonFromPath(config.MacaroonPath)
	if err != nil {
		return nil, errors.Errorf("Could not make macaroon: %v", err)
	}

	ctx := context.Background()
	ctx = metadata.NewOutgoingContext(ctx, metadata.Pairs("macaroon", macaroon))

	return &Client{
		client:  client,
		context: ctx,
	}, nil
}

// Snapshot fetches the public channel graph and converts it into snapshot
// channel records, one per direction with a known routing policy.
func (client *Client) Snapshot() (*snapshot.Snapshot, error) {
	channelGraph, err := client.client.DescribeGraph(client.context, &lnrpc.ChannelGraphRequest{
		IncludeUnannounced: true,
	}, grpc.MaxCallRecvMsgSize(50*1024*1024))
	if err != nil {
		return nil, errors.Errorf("Could not get channel graph: %v", err)
	}

	snap := &snapshot.Snapshot{}
	for _, edge := range channelGraph.Edges {
		snap.Channels = append(snap.Channels, channelEntries(edge)...)
	}

	return snap, nil
}

// channelEntries converts one graph edge into up to two directed snapshot
// entries. A direction without a policy is left out, which disables it in
// the model.
func channelEntries(edge *lnrpc.ChannelEdge) []snapshot.Channel {
	cid := jdb.ShortChanIDFromInt(edge.ChannelId).String()

	var entries []snapshot.Channel

	if edge.Node2Policy != nil {
		entries = append(entries, snapshot.Channel{
			Source:              edge.Node1Pub,
			Destination:         edge.Node2Pub,
			ShortChannelID:      cid,
			Satoshis:            edge.Capacity,
			Active:              !edge.Node2Policy.Disabled,
			BaseFeeMillisatoshi: float64(edge.Node2Policy.FeeBaseMsat),
			FeePerMillionth:     float64(edge.Node2Policy.FeeRateMilliMsat),
		})
	}

	if edge.Node1Policy != nil {
		entries = append(entries, snapshot.Channel{
			Source:              edge.Node2Pub,
			Destination:         edge.Node1Pub,
			ShortChannelID:      cid,
			Satoshis:            edge.Capacity,
			Active:              !edge.Node1Policy.Disabled,
			BaseFeeMillisatoshi: float64(edge.Node1Policy.FeeBaseMsat),
			FeePerMillionth:     float64(edge.Node1Policy.FeeRateMilliMsat),
		})
	}

	return entries
}

func makeTlsCertFromPath(path string) (*x509.CertPool, error) {
	certBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("Could not read tls cert %v", path)
	}

	cert := x509.NewCertPool()
	fullCertBytes := append([]byte("-----BEGIN CERTIFICATE-----\n"), certBytes...)
	fullCertBytes = append(fullCertBytes, []byte("\n-----END CERTIFICATE-----")...)
	if ok := cert.AppendCertsFromPEM(fullCertBytes); !ok {
		return nil, errors.New("Could not parse tls cert.")
	}

	return cert, nil
}

func makeMacaroonFromPath(path string) (string, error) {
	macaroonBytes, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Errorf("Could not read macaroon %v", path)
	}

	hexMacaroon := hex.EncodeToString(macaroonBytes)

	return hexMacaroon, nil
}
