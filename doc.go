/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package fabricenroll issues and stores identities for members of a Hyperledger Fabric network.
//
// Packages for end developer usage
//
// pkg/ca: Fabric CA client. NewClient builds a handle to a named CA from a connection profile
// and performs enrollment and registration over the CA's REST API.
//
// pkg/wallet: Identity wallet. Records are stored in the Fabric gateway JSON format in memory,
// on the filesystem, in Vault or in a SQL database.
//
// pkg/enroll: Enrollment workflows. EnsureAdminEnrolled bootstraps the registrar identity and
// EnsureUserEnrolled registers and enrolls users under its authority.
//
// pkg/operations: HTTP operations server exposing health, metrics and the enrollment API.
//
// cmd/fabric-enroll: Command line front end for all of the above.
//
// Basic workflow
//
//      1) Load configuration with config.FromFile.
//      2) Build a CA client with ca.NewClient and a wallet with wallet.New.
//      3) Create an enroller with enroll.New.
//      4) Call EnsureAdminEnrolled once, then EnsureUserEnrolled for each user.
//
package fabricenroll
