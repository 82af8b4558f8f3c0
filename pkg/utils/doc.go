// Package utils provides small helpers shared by the chmigrate packages.
//
// # Identifiers
//
// BacktickIdentifier quotes database and table names before they are placed
// in generated DDL:
//
//	utils.BacktickIdentifier("analytics")         // `analytics`
//	utils.BacktickIdentifier("analytics.events")  // `analytics`.`events`
//	utils.BacktickIdentifier("`analytics`")       // `analytics`
//
// # SQL builder
//
// SQLBuilder assembles the few statements chmigrate issues itself, such as
// creating the target database:
//
//	stmt := utils.NewSQLBuilder().
//		Create("DATABASE").
//		IfNotExists().
//		Name("analytics").
//		Engine("Atomic").
//		String()
//	// CREATE DATABASE IF NOT EXISTS `analytics` ENGINE = Atomic
//
// Statements are returned without a trailing semicolon because they are sent
// to ClickHouse one at a time.
package utils
